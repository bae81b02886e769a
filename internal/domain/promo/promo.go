package promo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Promo is a named percentage discount applicable to a booking subtotal.
// Codes match case-insensitively after trimming.
type Promo struct {
	id          uuid.UUID
	code        string
	percent     int64
	maxUses     int
	currentUses int
	validFrom   time.Time
	validUntil  time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NormalizeCode canonicalizes a promo code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewPromo creates a promo code. percent must be in (0, 100]. A zero maxUses
// means unlimited; a zero validUntil means no expiry.
func NewPromo(code string, percent int64, maxUses int, validFrom, validUntil time.Time) (*Promo, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("promo code is required")
	}
	if percent <= 0 || percent > 100 {
		return nil, fmt.Errorf("discount percent must be in 1-100, got %d", percent)
	}
	if !validUntil.IsZero() && validUntil.Before(validFrom) {
		return nil, fmt.Errorf("valid_until must be after valid_from")
	}

	now := time.Now().UTC()
	return &Promo{
		id:         uuid.New(),
		code:       code,
		percent:    percent,
		maxUses:    maxUses,
		validFrom:  validFrom,
		validUntil: validUntil,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Promo from persistence.
func Reconstruct(id uuid.UUID, code string, percent int64, maxUses, currentUses int, validFrom, validUntil, createdAt, updatedAt time.Time) *Promo {
	return &Promo{
		id: id, code: code, percent: percent,
		maxUses: maxUses, currentUses: currentUses,
		validFrom: validFrom, validUntil: validUntil,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// IsValid checks if the promo is currently usable.
func (p *Promo) IsValid() bool {
	now := time.Now().UTC()
	if now.Before(p.validFrom) {
		return false
	}
	if !p.validUntil.IsZero() && now.After(p.validUntil) {
		return false
	}
	return p.maxUses == 0 || p.currentUses < p.maxUses
}

// Discount computes the rupiah discount for a subtotal: subtotal*percent/100
// rounded half-up, applied once to the whole subtotal and clamped so the
// total never goes negative.
func (p *Promo) Discount(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	discount := (subtotal*p.percent + 50) / 100
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

// IncrementUses records one redemption.
func (p *Promo) IncrementUses() {
	p.currentUses++
	p.updatedAt = time.Now().UTC()
}

// Getters.
func (p *Promo) ID() uuid.UUID         { return p.id }
func (p *Promo) Code() string          { return p.code }
func (p *Promo) Percent() int64        { return p.percent }
func (p *Promo) MaxUses() int          { return p.maxUses }
func (p *Promo) CurrentUses() int      { return p.currentUses }
func (p *Promo) ValidFrom() time.Time  { return p.validFrom }
func (p *Promo) ValidUntil() time.Time { return p.validUntil }
func (p *Promo) CreatedAt() time.Time  { return p.createdAt }
func (p *Promo) UpdatedAt() time.Time  { return p.updatedAt }

// DefaultPromos returns the studio's standing promo codes.
func DefaultPromos() []*Promo {
	mk := func(code string, percent int64) *Promo {
		p, _ := NewPromo(code, percent, 0, time.Time{}, time.Time{})
		return p
	}
	return []*Promo{
		mk("HEMAT50", 50),
		mk("HEMAT20", 20),
		mk("HEMAT10", 10),
	}
}
