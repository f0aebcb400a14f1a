package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"IslandWar/internal/account/domain"
)

type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var acc domain.Account
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&acc).Error
	if err == nil {
		return &acc, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound.WithData("username", username)
	}
	return nil, domain.ErrSystemUnavailable.WithData("username", username).WithCause(err)
}

func (r *AccountRepo) Save(ctx context.Context, acc *domain.Account) error {
	if err := r.db.WithContext(ctx).Save(acc).Error; err != nil {
		return domain.ErrSystemUnavailable.WithData("username", acc.Username).WithCause(err)
	}
	return nil
}
