package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxprohub/service-booking/internal/domain"
	promoDomain "github.com/voxprohub/service-booking/internal/domain/promo"
)

// PromoModel is the GORM model for the promos table.
type PromoModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code        string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Percent     int64      `gorm:"not null"`
	MaxUses     int        `gorm:"default:0"`
	CurrentUses int        `gorm:"default:0"`
	ValidFrom   time.Time  `gorm:""`
	ValidUntil  *time.Time `gorm:""`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (PromoModel) TableName() string { return "promos" }

// GormPromoRepository implements promo.Repository using GORM.
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository.
func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// Save persists a new promo code.
func (r *GormPromoRepository) Save(ctx context.Context, p *promoDomain.Promo) error {
	model := toPromoModel(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update updates a promo code.
func (r *GormPromoRepository) Update(ctx context.Context, p *promoDomain.Promo) error {
	model := toPromoModel(p)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByCode returns a promo code by its canonical code string.
func (r *GormPromoRepository) FindByCode(ctx context.Context, code string) (*promoDomain.Promo, error) {
	var model PromoModel
	code = promoDomain.NormalizeCode(code)
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("promo", code)
		}
		return nil, err
	}
	return toPromoDomain(&model), nil
}

// FindByID returns a promo code by ID.
func (r *GormPromoRepository) FindByID(ctx context.Context, id uuid.UUID) (*promoDomain.Promo, error) {
	var model PromoModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("promo", id.String())
		}
		return nil, err
	}
	return toPromoDomain(&model), nil
}

// FindActive returns all currently usable promo codes.
func (r *GormPromoRepository) FindActive(ctx context.Context) ([]*promoDomain.Promo, error) {
	var models []PromoModel
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).
		Where("valid_from <= ?", now).
		Where("valid_until IS NULL OR valid_until >= ?", now).
		Where("max_uses = 0 OR current_uses < max_uses").
		Find(&models).Error; err != nil {
		return nil, err
	}

	promos := make([]*promoDomain.Promo, len(models))
	for i := range models {
		promos[i] = toPromoDomain(&models[i])
	}
	return promos, nil
}

// SeedDefaults inserts the standing promo codes if they are absent.
func (r *GormPromoRepository) SeedDefaults(ctx context.Context) error {
	for _, p := range promoDomain.DefaultPromos() {
		var count int64
		if err := r.db.WithContext(ctx).Model(&PromoModel{}).
			Where("code = ?", p.Code()).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func toPromoModel(p *promoDomain.Promo) PromoModel {
	var validUntil *time.Time
	if !p.ValidUntil().IsZero() {
		v := p.ValidUntil()
		validUntil = &v
	}
	return PromoModel{
		ID:          p.ID(),
		Code:        p.Code(),
		Percent:     p.Percent(),
		MaxUses:     p.MaxUses(),
		CurrentUses: p.CurrentUses(),
		ValidFrom:   p.ValidFrom(),
		ValidUntil:  validUntil,
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func toPromoDomain(m *PromoModel) *promoDomain.Promo {
	validUntil := time.Time{}
	if m.ValidUntil != nil {
		validUntil = *m.ValidUntil
	}
	return promoDomain.Reconstruct(
		m.ID, m.Code, m.Percent,
		m.MaxUses, m.CurrentUses,
		m.ValidFrom, validUntil,
		m.CreatedAt, m.UpdatedAt,
	)
}
