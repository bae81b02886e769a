package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookEventModel records each processed (reference, status) webhook pair.
// The composite unique index turns duplicate deliveries into detectable
// no-ops.
type WebhookEventModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Reference  string    `gorm:"type:varchar(60);not null;uniqueIndex:idx_webhook_ref_status"`
	Status     string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_webhook_ref_status"`
	ReceivedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (WebhookEventModel) TableName() string { return "webhook_events" }

// GormWebhookLog implements payment.WebhookLog using GORM.
type GormWebhookLog struct {
	db *gorm.DB
}

// NewGormWebhookLog creates a new GormWebhookLog.
func NewGormWebhookLog(db *gorm.DB) *GormWebhookLog {
	return &GormWebhookLog{db: db}
}

// Record inserts the (reference, status) pair and reports whether this is the
// first delivery. A duplicate key violation means a replay.
func (r *GormWebhookLog) Record(ctx context.Context, reference, status string) (bool, error) {
	model := WebhookEventModel{
		ID:         uuid.New(),
		Reference:  reference,
		Status:     status,
		ReceivedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
