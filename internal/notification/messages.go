package notification

import (
	"fmt"
	"html"
	"time"

	"medbs-backend/pkg/fcm"
	"medbs-backend/pkg/mailer"
)

// ReminderJob asks for a push reminder for a freshly created occurrence.
type ReminderJob struct {
	OccurrenceID  string
	UserID        string
	MedicineID    string
	MedicineName  string
	Dosage        string
	ScheduledTime string
}

// CaregiverAlertJob asks for a missed-dose email to the user's caregiver.
type CaregiverAlertJob struct {
	OccurrenceID  string
	UserID        string
	MedicineName  string
	ScheduledTime string // empty for unslotted logs
	Date          time.Time
}

func reminderNotification(job ReminderJob) fcm.NotificationData {
	return fcm.NotificationData{
		Title: "Time for your Medicine!",
		Body:  fmt.Sprintf("It's time to take %s of %s.", job.Dosage, job.MedicineName),
		Data: map[string]string{
			"type":           "dose_reminder",
			"occurrence_id":  job.OccurrenceID,
			"medicine_id":    job.MedicineID,
			"scheduled_time": job.ScheduledTime,
			"click_action":   "/adherence",
		},
	}
}

func caregiverAlertMessage(to, userName string, job CaregiverAlertJob) mailer.Message {
	slot := job.ScheduledTime
	if slot == "" {
		slot = "Scheduled time"
	}
	date := job.Date.Format("Jan 2, 2006")

	text := fmt.Sprintf("%s missed their scheduled dose.\n\nMedicine: %s\nScheduled Time: %s\nDate: %s\n\n"+
		"Please check in with them to ensure they take their medication.\n\n-- MedBs, Medication Adherence Assistant\n",
		userName, job.MedicineName, slot, date)

	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #856404;">Missed Dose Alert</h2>
  <p><strong>%s</strong> missed their scheduled dose:</p>
  <p><strong>Medicine:</strong> %s<br><strong>Scheduled Time:</strong> %s<br><strong>Date:</strong> %s</p>
  <p style="color: #666;">Please check in with them to ensure they take their medication.</p>
  <p style="color: #999; font-size: 12px;">Sent by MedBs, Medication Adherence Assistant</p>
</div>`,
		html.EscapeString(userName), html.EscapeString(job.MedicineName), html.EscapeString(slot), date)

	return mailer.Message{
		To:      to,
		Subject: "Missed Dose Alert - " + userName,
		Text:    text,
		HTML:    body,
	}
}
