package domain

import (
	"math"
	"sort"
	"time"
)

type DailyStat struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
	Taken int    `json:"taken"`
	Rate  int    `json:"rate"`
}

type AdherenceStats struct {
	Total      int         `json:"total"`
	Taken      int         `json:"taken"`
	Missed     int         `json:"missed"`
	Rate       int         `json:"rate"`
	DailyStats []DailyStat `json:"daily_stats"`
}

// Rate is taken/total as a rounded percentage, 0 when total is 0.
func Rate(taken, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(taken) / float64(total) * 100))
}

// ComputeStats aggregates occurrences overall and per calendar day in loc.
// Days are returned in ascending order.
func ComputeStats(occurrences []*DoseOccurrence, loc *time.Location) AdherenceStats {
	stats := AdherenceStats{DailyStats: []DailyStat{}}
	daily := make(map[string]*DailyStat)

	for _, o := range occurrences {
		key := o.Date.In(loc).Format(time.DateOnly)
		day, ok := daily[key]
		if !ok {
			day = &DailyStat{Date: key}
			daily[key] = day
		}
		day.Total++
		stats.Total++
		if o.Taken {
			day.Taken++
			stats.Taken++
		}
	}

	stats.Missed = stats.Total - stats.Taken
	stats.Rate = Rate(stats.Taken, stats.Total)

	for _, day := range daily {
		day.Rate = Rate(day.Taken, day.Total)
		stats.DailyStats = append(stats.DailyStats, *day)
	}
	sort.Slice(stats.DailyStats, func(i, j int) bool {
		return stats.DailyStats[i].Date < stats.DailyStats[j].Date
	})
	return stats
}
