package repository

import (
	"context"
	"errors"

	authdomain "medbs-backend/internal/auth/domain"

	"gorm.io/gorm"
)

// UserRepository is read access to notification targets.
type UserRepository interface {
	// FindByID returns nil, nil when the user does not exist.
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
