package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidProduct = errors.New("invalid product")

type Service interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, upd Update) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	}
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidProduct, p.Kind)
	}

	// Early answer for the common case. The unique constraint on
	// products.name is the authority: a concurrent create that slips
	// past this check still fails in the repository.
	exists, err := s.repo.ExistsByName(ctx, p.Name)
	if err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("service: failed to check product name")
		return nil, fmt.Errorf("service: failed to check product name: %w", err)
	}
	if exists {
		return nil, ErrNameExists
	}

	if _, err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrNameExists) {
			return nil, ErrNameExists
		}
		log.Error().Err(err).Str("name", p.Name).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Str("name", p.Name).Msg("service: product created")

	return p, nil
}

func (s *service) ListProducts(ctx context.Context, offset, limit int) ([]Product, error) {
	products, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	return products, nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to get product")
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}

	return p, nil
}

// UpdateProduct applies a partial change. A change that leaves every
// field as it was is rejected with ErrNotModified.
func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, upd Update) (*Product, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidProduct)
	}
	if upd.Name != nil && *upd.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidProduct)
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	}
	if upd.Kind != nil && !upd.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidProduct, *upd.Kind)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to get product for update")
		return nil, fmt.Errorf("service: failed to get product for update: %w", err)
	}

	changed := false
	if upd.Name != nil && *upd.Name != current.Name {
		current.Name = *upd.Name
		changed = true
	}
	if upd.Price != nil && *upd.Price != current.Price {
		current.Price = *upd.Price
		changed = true
	}
	if upd.Kind != nil && *upd.Kind != current.Kind {
		current.Kind = *upd.Kind
		changed = true
	}

	if !changed {
		log.Info().Stringer("product_id", id).Msg("service: product update produced no change")
		return nil, ErrNotModified
	}

	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNameExists) {
			return nil, err
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	log.Info().Stringer("product_id", id).Msg("service: product updated")

	return current, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	log.Info().Stringer("product_id", id).Msg("service: product deleted")

	return nil
}
