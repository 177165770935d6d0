package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mpavlenko/kitchen-backend/internal/product"
)

var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrProductNotResolved = errors.New("one of products not found")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// broadcastTopic is consumed by the kitchen counter display.
const broadcastTopic = "counter"

// kindForcesPending maps a product kind to whether it keeps the order
// out of the COMPLETED state. Only ready-made products can be handed
// over without the kitchen preparing anything.
var kindForcesPending = map[product.Kind]bool{
	product.KindFood:      true,
	product.KindCocktail:  true,
	product.KindReadyMade: false,
	product.KindOther:     true,
}

// Catalog is the read side of the product catalog the aggregation
// resolves line items against.
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

// Broadcaster receives a best-effort notification after a status
// update. Failures never affect the update's outcome.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic, orderID string) error
}

type Service interface {
	CreateOrder(ctx context.Context, lineItems []LineItem) (*Order, error)
	ListOrders(ctx context.Context, offset, limit int) ([]Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus Status) (int64, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        Repository
	catalog     Catalog
	broadcaster Broadcaster
}

func NewService(repo Repository, catalog Catalog, broadcaster Broadcaster) Service {
	return &service{
		repo:        repo,
		catalog:     catalog,
		broadcaster: broadcaster,
	}
}

// CreateOrder resolves every line item against the catalog, sums the
// total price and derives the initial status. If any referenced product
// does not exist the whole order is rejected before anything is
// persisted.
//
// The lookups run concurrently; the price and status fold runs
// afterwards, sequentially in line-item order, so the result does not
// depend on lookup completion order. The total is a plain float64
// accumulation (see product.Product on money semantics).
func (s *service) CreateOrder(ctx context.Context, lineItems []LineItem) (*Order, error) {
	if len(lineItems) == 0 {
		log.Warn().Msg("service: attempt to create order with no line items")
		return nil, fmt.Errorf("%w: order must contain at least one line item", ErrInvalidOrder)
	}

	for _, item := range lineItems {
		if item.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: line item product id is required", ErrInvalidOrder)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %s must be positive", ErrInvalidOrder, item.ProductID)
		}
	}

	resolved := make([]*product.Product, len(lineItems))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range lineItems {
		i, item := i, item
		g.Go(func() error {
			p, err := s.catalog.GetByID(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrProductNotResolved, item.ProductID)
				}
				return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
			}
			resolved[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("service: failed to resolve order line items")
		return nil, err
	}

	totalPrice := 0.0
	status := StatusCompleted
	for i, item := range lineItems {
		totalPrice += resolved[i].Price * float64(item.Quantity)
		if kindForcesPending[resolved[i].Kind] {
			status = StatusPending
		}
	}

	o := &Order{
		LineItems:  lineItems,
		TotalPrice: totalPrice,
		Status:     status,
	}

	if _, err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Float64("total_price", o.TotalPrice).
		Stringer("status", o.Status).
		Msg("service: order created")

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, offset, limit int) ([]Order, error) {
	orders, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return orders, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to get order")
		return nil, fmt.Errorf("service: failed to get order: %w", err)
	}

	return o, nil
}

// UpdateOrderStatus applies the new status and reports how many records
// changed. Writing the status the order already has is rejected with
// ErrNotModified.
func (s *service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus Status) (int64, error) {
	if !newStatus.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Stringer("order_id", id).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return 0, ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to get order for status update")
		return 0, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		log.Info().Stringer("order_id", id).Stringer("status", newStatus).Msg("service: order status unchanged")
		return 0, ErrNotModified
	}

	modified, err := s.repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotModified) {
			return 0, err
		}
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", newStatus).Msg("service: failed to update order status")
		return 0, fmt.Errorf("service: failed to update order status: %w", err)
	}

	// Best effort: the counter display just needs a nudge.
	if err := s.broadcaster.Broadcast(ctx, broadcastTopic, id.String()); err != nil {
		log.Warn().Err(err).Stringer("order_id", id).Msg("service: failed to broadcast status update")
	}

	log.Info().
		Stringer("order_id", id).
		Stringer("old_status", current.Status).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")

	return modified, nil
}

func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to delete order")
		return fmt.Errorf("service: failed to delete order: %w", err)
	}

	log.Info().Stringer("order_id", id).Msg("service: order deleted")

	return nil
}
