package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/domain"
	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
	paymentDomain "github.com/voxprohub/service-booking/internal/domain/payment"
	"github.com/voxprohub/service-booking/internal/events"
	"github.com/voxprohub/service-booking/internal/notification"
)

// LifecycleService owns the booking payment state machine. Webhooks, manual
// overrides, customer cancellation and the expiry sweep all funnel through
// the same transition path, so the terminal-state no-op rule applies to every
// caller uniformly.
type LifecycleService struct {
	repo       bookingDomain.Repository
	index      bookingDomain.AvailabilityIndex
	webhookLog paymentDomain.WebhookLog
	dispatcher *notification.Dispatcher
	logger     *zap.Logger
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	repo bookingDomain.Repository,
	index bookingDomain.AvailabilityIndex,
	webhookLog paymentDomain.WebhookLog,
	dispatcher *notification.Dispatcher,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		repo:       repo,
		index:      index,
		webhookLog: webhookLog,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ApplyWebhook processes one provider callback. The provider status is
// normalized through the explicit table; unmapped statuses are logged and
// leave the booking untouched. Redeliveries are absorbed by the
// terminal-state no-op in apply, so a delivery whose transition failed
// transiently can still land on retry. The returned status is the booking's
// status after the attempt, whether or not it changed.
func (s *LifecycleService) ApplyWebhook(ctx context.Context, reference, providerStatus string) (bookingDomain.Status, error) {
	bookingID, err := paymentDomain.ParseReference(reference)
	if err != nil {
		return "", domain.NewValidationError(err.Error(), "no_ref")
	}

	target, ok := paymentDomain.NormalizeProviderStatus(providerStatus)
	if !ok {
		s.logger.Warn("webhook carries unmapped provider status, ignoring",
			zap.String("reference", reference),
			zap.String("provider_status", providerStatus),
		)
		return "", &domain.DomainError{
			Err:     domain.ErrUnmappedStatus,
			Message: fmt.Sprintf("provider status %q is not mapped", providerStatus),
		}
	}

	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return "", err
	}

	status, err := s.apply(ctx, b, target)
	if err != nil {
		return "", err
	}

	// Delivery log for auditing. Recorded only after the transition committed:
	// an entry written before a failed update would make the provider's
	// redelivery look like a duplicate and drop the payment.
	first, lerr := s.webhookLog.Record(ctx, reference, string(target))
	if lerr != nil {
		s.logger.Warn("failed to record webhook delivery",
			zap.String("reference", reference),
			zap.Error(lerr),
		)
	} else if !first {
		s.logger.Info("duplicate webhook delivery",
			zap.String("reference", reference),
			zap.String("status", string(status)),
		)
	}

	return status, nil
}

// Cancel ends a booking's payment wait early on customer or admin request.
func (s *LifecycleService) Cancel(ctx context.Context, bookingID uuid.UUID) (bookingDomain.Status, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	return s.apply(ctx, b, bookingDomain.StatusCancelled)
}

// Override applies a manual status transition (admin entry point).
func (s *LifecycleService) Override(ctx context.Context, bookingID uuid.UUID, target bookingDomain.Status) (bookingDomain.Status, error) {
	if !target.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("unknown status %q", target), "status")
	}
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	return s.apply(ctx, b, target)
}

// GetStatus returns the booking's current payment status.
func (s *LifecycleService) GetStatus(ctx context.Context, bookingID uuid.UUID) (bookingDomain.Status, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	return b.Status(), nil
}

// ExpireOverdue transitions every pending booking whose deadline has passed
// to expired, releasing its slots. It returns how many bookings expired.
func (s *LifecycleService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.repo.FindOverduePending(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, b := range overdue {
		status, err := s.apply(ctx, b, bookingDomain.StatusExpired)
		if err != nil {
			s.logger.Error("failed to expire booking",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		if status == bookingDomain.StatusExpired {
			expired++
		}
	}
	return expired, nil
}

// ReconcileSlots frees slot rows still owned by terminal bookings. A release
// that fails after its status transition commits is only logged, and the sweep
// scans pending bookings only, so this is what retries it. It returns the
// number of rows freed.
func (s *LifecycleService) ReconcileSlots(ctx context.Context) (int64, error) {
	freed, err := s.index.ReleaseOrphaned(ctx)
	if err != nil {
		return 0, err
	}
	if freed > 0 {
		s.logger.Warn("released slot rows orphaned by terminal bookings",
			zap.Int64("rows", freed),
		)
	}
	return freed, nil
}

// apply attempts the transition and persists it. A booking already in a
// terminal state reports its current status without error. Losing the
// optimistic-lock race to a concurrent transition is treated the same way:
// whichever transition committed first wins and is final.
func (s *LifecycleService) apply(ctx context.Context, b *bookingDomain.Booking, target bookingDomain.Status) (bookingDomain.Status, error) {
	status, changed := b.Transition(target)
	if !changed {
		s.logger.Info("transition is a no-op",
			zap.String("booking_id", b.ID().String()),
			zap.String("current", string(status)),
			zap.String("target", string(target)),
		)
		return status, nil
	}

	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			fresh, ferr := s.repo.FindByID(ctx, b.ID())
			if ferr != nil {
				return "", ferr
			}
			s.logger.Info("lost transition race, keeping committed status",
				zap.String("booking_id", b.ID().String()),
				zap.String("committed", string(fresh.Status())),
				zap.String("attempted", string(target)),
			)
			return fresh.Status(), nil
		}
		return "", err
	}

	if status == bookingDomain.StatusCancelled || status == bookingDomain.StatusExpired || status == bookingDomain.StatusFailed {
		if err := s.index.Release(ctx, b.ID()); err != nil {
			s.logger.Error("failed to release slots",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("booking transitioned",
		zap.String("booking_id", b.ID().String()),
		zap.String("status", string(status)),
	)

	if s.dispatcher != nil {
		s.dispatcher.BookingChanged(ctx, b, eventTypeFor(status))
	}
	return status, nil
}

func eventTypeFor(status bookingDomain.Status) string {
	switch status {
	case bookingDomain.StatusPaid:
		return events.BookingPaid
	case bookingDomain.StatusCancelled:
		return events.BookingCancelled
	case bookingDomain.StatusExpired:
		return events.BookingExpired
	case bookingDomain.StatusFailed:
		return events.BookingFailed
	}
	return events.BookingCreated
}
