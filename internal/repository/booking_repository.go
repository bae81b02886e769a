package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxprohub/service-booking/internal/domain"
	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
)

// BookingModel is the GORM persistence model for the bookings table. The
// reserved slots are embedded as JSON so a booking keeps its slot history even
// after the availability index releases the hours.
type BookingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerName  string    `gorm:"type:varchar(100);not null"`
	CustomerPhone string    `gorm:"type:varchar(30);not null"`
	SlotsJSON     string    `gorm:"type:text;not null"`
	FirstDate     string    `gorm:"type:varchar(10);not null;index"`
	Subtotal      int64     `gorm:"not null"`
	Discount      int64     `gorm:"not null"`
	Total         int64     `gorm:"not null"`
	PromoCode     string    `gorm:"type:varchar(50)"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	Note          string    `gorm:"type:text"`
	Deadline      time.Time `gorm:"not null"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of booking.Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GORM-based booking repository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique ID.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, err
	}
	return toBookingDomain(&model)
}

// List retrieves bookings ordered by first slot date descending.
func (r *GormBookingRepository) List(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("first_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		b, err := toBookingDomain(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = b
	}
	return bookings, total, nil
}

// FindOverduePending returns pending bookings whose deadline has passed.
func (r *GormBookingRepository) FindOverduePending(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", string(bookingDomain.StatusPending), now).
		Find(&models).Error; err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		b, err := toBookingDomain(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = b
	}
	return bookings, nil
}

// GetStats returns booking counts per status and total paid revenue.
func (r *GormBookingRepository) GetStats(ctx context.Context) (map[string]int64, int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}

	var revenue int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("status = ?", string(bookingDomain.StatusPaid)).
		Select("COALESCE(SUM(total), 0)").
		Scan(&revenue).Error; err != nil {
		return nil, 0, err
	}
	return counts, revenue, nil
}

// Save persists a new booking aggregate.
func (r *GormBookingRepository) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model, err := toBookingModel(b)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model, err := toBookingModel(b)
	if err != nil {
		return err
	}
	previousVersion := b.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]any{
			"status":     model.Status,
			"note":       model.Note,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction", nil)
	}
	return nil
}

// toBookingDomain maps a BookingModel to the domain Booking aggregate.
func toBookingDomain(model *BookingModel) (*bookingDomain.Booking, error) {
	var slots []bookingDomain.ReservedSlot
	if err := json.Unmarshal([]byte(model.SlotsJSON), &slots); err != nil {
		return nil, fmt.Errorf("decode slots for booking %s: %w", model.ID, err)
	}
	return bookingDomain.Reconstitute(
		model.ID,
		model.CustomerName,
		model.CustomerPhone,
		slots,
		model.Subtotal,
		model.Discount,
		model.Total,
		model.PromoCode,
		bookingDomain.Status(model.Status),
		model.Note,
		model.Deadline,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

// toBookingModel maps a domain Booking aggregate to a BookingModel.
func toBookingModel(b *bookingDomain.Booking) (*BookingModel, error) {
	raw, err := json.Marshal(b.Slots())
	if err != nil {
		return nil, fmt.Errorf("encode slots for booking %s: %w", b.ID(), err)
	}
	firstDate := ""
	if len(b.Slots()) > 0 {
		firstDate = b.Slots()[0].Date
	}
	return &BookingModel{
		ID:            b.ID(),
		CustomerName:  b.CustomerName(),
		CustomerPhone: b.CustomerPhone(),
		SlotsJSON:     string(raw),
		FirstDate:     firstDate,
		Subtotal:      b.Subtotal(),
		Discount:      b.Discount(),
		Total:         b.Total(),
		PromoCode:     b.PromoCode(),
		Status:        string(b.Status()),
		Note:          b.Note(),
		Deadline:      b.Deadline(),
		Version:       b.Version(),
		CreatedAt:     b.CreatedAt(),
		UpdatedAt:     b.UpdatedAt(),
	}, nil
}
