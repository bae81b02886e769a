package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxprohub/service-booking/internal/domain"
	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
	paymentDomain "github.com/voxprohub/service-booking/internal/domain/payment"
	promoDomain "github.com/voxprohub/service-booking/internal/domain/promo"
	"github.com/voxprohub/service-booking/internal/events"
)

// In-memory doubles for the persistence and messaging ports.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	// conflictNextUpdate makes the next Update fail with a conflict, as if
	// another writer committed first.
	conflictNextUpdate bool
	// failNextUpdate makes the next Update return this error once, as a
	// transient storage failure.
	failNextUpdate error
	saveErr        error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

// snapshot copies the aggregate so stored state only changes through Save and
// Update, like rows rehydrated by the real repository.
func snapshot(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.Reconstitute(
		b.ID(), b.CustomerName(), b.CustomerPhone(), b.Slots(),
		b.Subtotal(), b.Discount(), b.Total(), b.PromoCode(),
		b.Status(), b.Note(), b.Deadline(), b.Version(),
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return snapshot(b), nil
}

func (r *fakeBookingRepo) List(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*bookingDomain.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		all = append(all, b)
	}
	return all, int64(len(all)), nil
}

func (r *fakeBookingRepo) FindOverduePending(_ context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var overdue []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.IsOverdue(now) {
			overdue = append(overdue, snapshot(b))
		}
	}
	return overdue, nil
}

func (r *fakeBookingRepo) GetStats(_ context.Context) (map[string]int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	var revenue int64
	for _, b := range r.bookings {
		counts[string(b.Status())]++
		if b.Status() == bookingDomain.StatusPaid {
			revenue += b.Total()
		}
	}
	return counts, revenue, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = snapshot(b)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictNextUpdate {
		r.conflictNextUpdate = false
		return domain.NewConflictError("booking was modified concurrently", nil)
	}
	if r.failNextUpdate != nil {
		err := r.failNextUpdate
		r.failNextUpdate = nil
		return err
	}
	r.bookings[b.ID()] = snapshot(b)
	return nil
}

type fakeIndex struct {
	mu       sync.Mutex
	owned    map[uuid.UUID][]bookingDomain.ReservedSlot
	released []uuid.UUID
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{owned: make(map[uuid.UUID][]bookingDomain.ReservedSlot)}
}

func (i *fakeIndex) Blocked(_ context.Context, roomID, date string) ([]bookingDomain.ReservedSlot, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var blocked []bookingDomain.ReservedSlot
	for _, slots := range i.owned {
		for _, s := range slots {
			if s.RoomID == roomID && s.Date == date {
				blocked = append(blocked, s)
			}
		}
	}
	return blocked, nil
}

func (i *fakeIndex) ReserveAtomic(_ context.Context, bookingID uuid.UUID, candidates []bookingDomain.ReservedSlot) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, c := range candidates {
		for _, slots := range i.owned {
			for _, s := range slots {
				if c.Overlaps(s) {
					return domain.NewConflictError("slot already reserved", []bookingDomain.ReservedSlot{s})
				}
			}
		}
	}
	for a := 0; a < len(candidates); a++ {
		for b := a + 1; b < len(candidates); b++ {
			if candidates[a].Overlaps(candidates[b]) {
				return domain.NewConflictError("requested slots overlap each other", nil)
			}
		}
	}
	i.owned[bookingID] = candidates
	return nil
}

func (i *fakeIndex) Release(_ context.Context, bookingID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.owned, bookingID)
	i.released = append(i.released, bookingID)
	return nil
}

func (i *fakeIndex) ReleaseOrphaned(_ context.Context) (int64, error) {
	// The fake has no view of booking statuses; releases here never fail, so
	// there is nothing to reconcile.
	return 0, nil
}

type fakePromoRepo struct {
	mu     sync.Mutex
	promos map[string]*promoDomain.Promo
}

func newFakePromoRepo(promos ...*promoDomain.Promo) *fakePromoRepo {
	r := &fakePromoRepo{promos: make(map[string]*promoDomain.Promo)}
	for _, p := range promos {
		r.promos[p.Code()] = p
	}
	return r
}

func (r *fakePromoRepo) Save(_ context.Context, p *promoDomain.Promo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.promos[p.Code()]; exists {
		return domain.NewConflictError("promo code already exists", nil)
	}
	r.promos[p.Code()] = p
	return nil
}

func (r *fakePromoRepo) Update(_ context.Context, p *promoDomain.Promo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promos[p.Code()] = p
	return nil
}

func (r *fakePromoRepo) FindByCode(_ context.Context, code string) (*promoDomain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[promoDomain.NormalizeCode(code)]
	if !ok {
		return nil, domain.NewNotFoundError("promo", code)
	}
	return p, nil
}

func (r *fakePromoRepo) FindByID(_ context.Context, id uuid.UUID) (*promoDomain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.promos {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("promo", id.String())
}

func (r *fakePromoRepo) FindActive(_ context.Context) ([]*promoDomain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*promoDomain.Promo
	for _, p := range r.promos {
		if p.IsValid() {
			active = append(active, p)
		}
	}
	return active, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*paymentDomain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*paymentDomain.Session)}
}

func (r *fakeSessionRepo) Save(_ context.Context, s *paymentDomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.BookingID()] = s
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *paymentDomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.BookingID()] = s
	return nil
}

func (r *fakeSessionRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*paymentDomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("payment session", bookingID.String())
	}
	return s, nil
}

func (r *fakeSessionRepo) DeleteByBookingID(_ context.Context, bookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, bookingID)
	return nil
}

type fakeWebhookLog struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeWebhookLog() *fakeWebhookLog {
	return &fakeWebhookLog{seen: make(map[string]bool)}
}

func (l *fakeWebhookLog) Record(_ context.Context, reference, status string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := reference + "|" + status
	if l.seen[key] {
		return false, nil
	}
	l.seen[key] = true
	return true, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, ce events.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}
