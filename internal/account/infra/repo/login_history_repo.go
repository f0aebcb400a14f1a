package repo

import (
	"context"

	"gorm.io/gorm"

	"IslandWar/internal/account/domain"
)

type LoginHistoryRepo struct {
	db *gorm.DB
}

func NewLoginHistoryRepo(db *gorm.DB) *LoginHistoryRepo {
	return &LoginHistoryRepo{db: db}
}

func (r *LoginHistoryRepo) Save(ctx context.Context, h domain.LoginHistory) error {
	if err := r.db.WithContext(ctx).Create(&h).Error; err != nil {
		return domain.ErrSystemUnavailable.WithData("uid", h.UID).WithCause(err)
	}
	return nil
}
