package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxprohub/service-booking/internal/domain"
	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
)

// SlotHourModel is one occupied hour of one room on one date. The composite
// unique index is what makes concurrent conflicting reservations fail
// atomically at the storage layer: a reservation inserts one row per hour,
// and a duplicate key error rolls the whole insert back.
type SlotHourModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index"`
	RoomID    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_room_date_hour"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_room_date_hour"`
	Hour      int       `gorm:"not null;uniqueIndex:idx_room_date_hour"`
}

// TableName specifies the table name for GORM.
func (SlotHourModel) TableName() string {
	return "slot_hours"
}

// GormAvailabilityIndex implements booking.AvailabilityIndex on the
// slot_hours table.
type GormAvailabilityIndex struct {
	db *gorm.DB
}

// NewGormAvailabilityIndex creates a new availability index.
func NewGormAvailabilityIndex(db *gorm.DB) *GormAvailabilityIndex {
	return &GormAvailabilityIndex{db: db}
}

// Blocked returns the occupied hour intervals for a room and date, merged per
// owning booking so the calendar can render contiguous blocks.
func (r *GormAvailabilityIndex) Blocked(ctx context.Context, roomID, date string) ([]bookingDomain.ReservedSlot, error) {
	var rows []SlotHourModel
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND date = ?", roomID, date).
		Order("hour ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return mergeHours(rows), nil
}

// ReserveAtomic admits all candidate slots for a booking or none. The
// candidates are first checked against each other, then against existing
// occupancy inside a single transaction; the unique index backstops races
// between concurrent transactions that both pass the read check.
func (r *GormAvailabilityIndex) ReserveAtomic(ctx context.Context, bookingID uuid.UUID, candidates []bookingDomain.ReservedSlot) error {
	if err := checkSelfOverlap(candidates); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []SlotHourModel
		for _, c := range candidates {
			if c.EndHour <= c.StartHour {
				return domain.NewValidationError(
					fmt.Sprintf("slot %s on %s has an empty hour range", c.RoomID, c.Date))
			}
			var existing []SlotHourModel
			if err := tx.
				Where("room_id = ? AND date = ? AND hour >= ? AND hour < ?",
					c.RoomID, c.Date, c.StartHour, c.EndHour).
				Order("hour ASC").
				Find(&existing).Error; err != nil {
				return err
			}
			if len(existing) > 0 {
				return conflictError(existing)
			}
			for h := c.StartHour; h < c.EndHour; h++ {
				rows = append(rows, SlotHourModel{
					ID:        uuid.New(),
					BookingID: bookingID,
					RoomID:    c.RoomID,
					Date:      c.Date,
					Hour:      h,
				})
			}
		}
		return tx.Create(&rows).Error
	})

	if err != nil {
		var domErr *domain.DomainError
		if errors.As(err, &domErr) {
			return err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent insert after the read check.
			return domain.NewConflictError("requested slots were just taken", candidateIntervals(candidates))
		}
		return err
	}
	return nil
}

// Release frees every hour owned by the booking.
func (r *GormAvailabilityIndex) Release(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&SlotHourModel{}).Error
}

// ReleaseOrphaned frees hour rows whose owning booking is cancelled, expired
// or failed. The status update and the release are separate writes, so a
// release that failed in between leaves rows behind; this pass picks them up.
func (r *GormAvailabilityIndex) ReleaseOrphaned(ctx context.Context) (int64, error) {
	terminal := r.db.Model(&BookingModel{}).
		Select("id").
		Where("status IN ?", []string{
			string(bookingDomain.StatusCancelled),
			string(bookingDomain.StatusExpired),
			string(bookingDomain.StatusFailed),
		})

	res := r.db.WithContext(ctx).
		Where("booking_id IN (?)", terminal).
		Delete(&SlotHourModel{})
	return res.RowsAffected, res.Error
}

// checkSelfOverlap rejects candidate sets that collide with themselves.
func checkSelfOverlap(candidates []bookingDomain.ReservedSlot) error {
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].Overlaps(candidates[j]) {
				return domain.NewConflictError(
					fmt.Sprintf("requested slots overlap each other: %s %s %s",
						candidates[i].RoomID, candidates[i].Date, candidates[i].Interval()),
					[]bookingDomain.ReservedSlot{candidates[i], candidates[j]},
				)
			}
		}
	}
	return nil
}

// conflictError builds a ConflictError naming the colliding intervals.
func conflictError(existing []SlotHourModel) error {
	intervals := mergeHours(existing)
	names := make([]string, len(intervals))
	for i, iv := range intervals {
		names[i] = fmt.Sprintf("%s %s %s", iv.RoomID, iv.Date, iv.Interval())
	}
	return domain.NewConflictError(
		fmt.Sprintf("requested slots collide with existing reservations: %v", names),
		intervals,
	)
}

// mergeHours folds per-hour rows into contiguous intervals per booking.
func mergeHours(rows []SlotHourModel) []bookingDomain.ReservedSlot {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.BookingID != b.BookingID {
			return a.BookingID.String() < b.BookingID.String()
		}
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Hour < b.Hour
	})

	var out []bookingDomain.ReservedSlot
	var owner uuid.UUID
	for _, row := range rows {
		n := len(out)
		if n > 0 &&
			owner == row.BookingID &&
			out[n-1].RoomID == row.RoomID &&
			out[n-1].Date == row.Date &&
			out[n-1].EndHour == row.Hour {
			out[n-1].EndHour = row.Hour + 1
			continue
		}
		owner = row.BookingID
		out = append(out, bookingDomain.ReservedSlot{
			RoomID:    row.RoomID,
			Date:      row.Date,
			StartHour: row.Hour,
			EndHour:   row.Hour + 1,
		})
	}
	return out
}

// candidateIntervals extracts the interval view of candidates for conflict
// detail.
func candidateIntervals(candidates []bookingDomain.ReservedSlot) []bookingDomain.ReservedSlot {
	out := make([]bookingDomain.ReservedSlot, len(candidates))
	copy(out, candidates)
	return out
}
