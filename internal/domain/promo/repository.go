package promo

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for promo codes.
type Repository interface {
	Save(ctx context.Context, p *Promo) error
	Update(ctx context.Context, p *Promo) error
	FindByCode(ctx context.Context, code string) (*Promo, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Promo, error)
	FindActive(ctx context.Context) ([]*Promo, error)
}
