package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// PendingPayment bridges a payment attempt across the full-page redirect to
// the gateway and back. It is written before the redirect and deleted once
// the gateway confirms settlement. An abandoned record carries a correlation
// id, not a capability, so no TTL is enforced.
type PendingPayment struct {
	CorrelationID string `gorm:"primaryKey" json:"correlation_id"`
	UserID        string `gorm:"index;not null" json:"user_id"`
	UserName      string `json:"user_name"`
	Amount        int    `gorm:"not null" json:"amount"`
	PhoneNumber   string `json:"phone_number"`
	// SurveyData is the survey payload awaiting submission once the payment
	// settles; stored here so the resume path still has it after a reload.
	SurveyData json.RawMessage `gorm:"type:jsonb" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (PendingPayment) TableName() string { return "transit_pay.pending_payments" }

// PendingStore persists pending-payment records. Only the payment workflow
// writes them.
type PendingStore interface {
	Create(ctx context.Context, p PendingPayment) error
	// FindByUser returns the user's pending record, or nil when none exists.
	FindByUser(ctx context.Context, userID string) (*PendingPayment, error)
	Delete(ctx context.Context, correlationID string) error
	List(ctx context.Context) ([]PendingPayment, error)
}

// GormPendingStore is the Postgres-backed PendingStore.
type GormPendingStore struct {
	DB *gorm.DB
}

func (s *GormPendingStore) Create(ctx context.Context, p PendingPayment) error {
	return s.DB.WithContext(ctx).Create(&p).Error
}

func (s *GormPendingStore) FindByUser(ctx context.Context, userID string) (*PendingPayment, error) {
	var p PendingPayment
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormPendingStore) Delete(ctx context.Context, correlationID string) error {
	return s.DB.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Delete(&PendingPayment{}).Error
}

func (s *GormPendingStore) List(ctx context.Context) ([]PendingPayment, error) {
	var records []PendingPayment
	err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&records).Error
	return records, err
}
