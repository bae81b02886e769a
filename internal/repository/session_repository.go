package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxprohub/service-booking/internal/domain"
	paymentDomain "github.com/voxprohub/service-booking/internal/domain/payment"
)

// SessionModel is the GORM model for the payment_sessions table. One session
// per booking: re-issuing refreshes the row rather than adding a second one.
type SessionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Reference string    `gorm:"type:varchar(60);uniqueIndex;not null"`
	QRData    string    `gorm:"type:text"`
	Amount    int64     `gorm:"not null"`
	IssuedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (SessionModel) TableName() string { return "payment_sessions" }

// GormSessionRepository implements payment.SessionRepository using GORM.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Save persists a new payment session.
func (r *GormSessionRepository) Save(ctx context.Context, s *paymentDomain.Session) error {
	model := toSessionModel(s)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update updates a payment session.
func (r *GormSessionRepository) Update(ctx context.Context, s *paymentDomain.Session) error {
	model := toSessionModel(s)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByBookingID returns the session for a booking.
func (r *GormSessionRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Session, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("payment session", bookingID.String())
		}
		return nil, err
	}
	return toSessionDomain(&model), nil
}

// DeleteByBookingID removes the session for a booking (saga compensation).
func (r *GormSessionRepository) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&SessionModel{}).Error
}

func toSessionModel(s *paymentDomain.Session) SessionModel {
	return SessionModel{
		ID:        s.ID(),
		BookingID: s.BookingID(),
		Reference: s.ReferenceID(),
		QRData:    s.QRData(),
		Amount:    s.Amount(),
		IssuedAt:  s.IssuedAt(),
	}
}

func toSessionDomain(m *SessionModel) *paymentDomain.Session {
	return paymentDomain.Reconstruct(m.ID, m.BookingID, m.Reference, m.QRData, m.Amount, m.IssuedAt)
}
