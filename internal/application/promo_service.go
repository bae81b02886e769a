package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/domain"
	promoDomain "github.com/voxprohub/service-booking/internal/domain/promo"
)

// CreatePromoRequest holds data to create a promo code (admin).
type CreatePromoRequest struct {
	Code       string `json:"code" binding:"required"`
	Percent    int64  `json:"percent" binding:"required"`
	MaxUses    int    `json:"max_uses"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
}

// ValidatePromoRequest holds data to validate a promo code against a subtotal.
type ValidatePromoRequest struct {
	Code     string `json:"code" binding:"required"`
	Subtotal int64  `json:"subtotal" binding:"required"`
}

// PromoDTO is the API response representation of a promo code.
type PromoDTO struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Percent     int64      `json:"percent"`
	MaxUses     int        `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PromoValidationDTO is the result of validating a promo code.
type PromoValidationDTO struct {
	Valid    bool   `json:"valid"`
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
	Total    int64  `json:"total"`
	Message  string `json:"message,omitempty"`
}

// PromoService handles promo code use cases.
type PromoService struct {
	repo   promoDomain.Repository
	logger *zap.Logger
}

// NewPromoService creates a new PromoService.
func NewPromoService(repo promoDomain.Repository, logger *zap.Logger) *PromoService {
	return &PromoService{repo: repo, logger: logger}
}

// CreatePromo creates a new promo code (admin only).
func (s *PromoService) CreatePromo(ctx context.Context, req CreatePromoRequest) (*PromoDTO, error) {
	var validFrom, validUntil time.Time
	var err error
	if req.ValidFrom != "" {
		validFrom, err = time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			return nil, domain.NewValidationError("invalid valid_from format (use RFC3339)", "valid_from")
		}
	}
	if req.ValidUntil != "" {
		validUntil, err = time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			return nil, domain.NewValidationError("invalid valid_until format (use RFC3339)", "valid_until")
		}
	}

	p, err := promoDomain.NewPromo(req.Code, req.Percent, req.MaxUses, validFrom, validUntil)
	if err != nil {
		return nil, domain.NewValidationError(err.Error(), "code")
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save promo: %w", err)
	}

	s.logger.Info("promo code created", zap.String("code", p.Code()))
	dto := toPromoDTO(p)
	return &dto, nil
}

// ValidatePromo checks whether a promo code applies to the subtotal and
// computes the resulting discount and total.
func (s *PromoService) ValidatePromo(ctx context.Context, req ValidatePromoRequest) (*PromoValidationDTO, error) {
	p, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &PromoValidationDTO{Valid: false, Code: promoDomain.NormalizeCode(req.Code), Total: req.Subtotal, Message: "promo code not found"}, nil
		}
		return nil, err
	}

	if !p.IsValid() {
		return &PromoValidationDTO{Valid: false, Code: p.Code(), Total: req.Subtotal, Message: "promo code is expired or fully used"}, nil
	}

	discount := p.Discount(req.Subtotal)
	return &PromoValidationDTO{
		Valid:    true,
		Code:     p.Code(),
		Discount: discount,
		Total:    req.Subtotal - discount,
	}, nil
}

// GetActivePromos returns all currently usable promo codes.
func (s *PromoService) GetActivePromos(ctx context.Context) ([]PromoDTO, error) {
	promos, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]PromoDTO, len(promos))
	for i, p := range promos {
		dtos[i] = toPromoDTO(p)
	}
	return dtos, nil
}

func toPromoDTO(p *promoDomain.Promo) PromoDTO {
	var validUntil *time.Time
	if !p.ValidUntil().IsZero() {
		v := p.ValidUntil()
		validUntil = &v
	}
	return PromoDTO{
		ID:          p.ID(),
		Code:        p.Code(),
		Percent:     p.Percent(),
		MaxUses:     p.MaxUses(),
		CurrentUses: p.CurrentUses(),
		ValidFrom:   p.ValidFrom(),
		ValidUntil:  validUntil,
		CreatedAt:   p.CreatedAt(),
	}
}
