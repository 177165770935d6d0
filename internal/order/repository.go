package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound    = errors.New("order not found")
	ErrNotModified = errors.New("order not modified")
)

type Repository interface {
	Create(ctx context.Context, o *Order) (uuid.UUID, error)
	List(ctx context.Context, offset, limit int) ([]Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create persists the order and its line items in one transaction and
// assigns the order ID.
func (r *postgresRepository) Create(ctx context.Context, o *Order) (orderID uuid.UUID, err error) {
	orderID, err = uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("repository: failed to rollback transaction")
			}
		}
	}()

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
		o.UpdatedAt = now
	}

	queryOrder := `
		INSERT INTO orders (id, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, queryOrder, orderID, o.TotalPrice, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range o.LineItems {
		item := &o.LineItems[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate line item ID: %w", genErr)
			return uuid.Nil, err
		}

		_, err = tx.Exec(ctx, queryItem, itemID, orderID, item.ProductID, item.Quantity, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to insert line item for order %s: %w", orderID, err)
		}

		item.ID = itemID
		item.OrderID = orderID
		item.CreatedAt = o.CreatedAt
		item.UpdatedAt = o.UpdatedAt
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	o.ID = orderID

	return orderID, nil
}

// List returns orders in insertion order with their line items. A limit
// of zero or less means no limit.
func (r *postgresRepository) List(ctx context.Context, offset, limit int) ([]Order, error) {
	query := `
		SELECT id, total_price, status, created_at, updated_at
		FROM orders
		ORDER BY created_at, id
		OFFSET $1 LIMIT NULLIF($2, 0)
	`

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.LineItems = make([]LineItem, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryItems := `
		SELECT id, order_id, product_id, quantity, created_at, updated_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id
	`
	itemRows, err := r.db.Query(ctx, queryItems, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query line items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item LineItem
		err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan line item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.LineItems = append(o.LineItems, item)
		}
	}

	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating line items: %w", err)
	}

	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *ordersMap[id])
	}

	return orders, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT id, total_price, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, id).Scan(&o.ID, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	queryItems := `
		SELECT id, order_id, product_id, quantity, created_at, updated_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, queryItems, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query line items for order %s: %w", id, err)
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		var item LineItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan line item for order %s: %w", id, err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating line items for order %s: %w", id, err)
	}

	o.LineItems = items

	return &o, nil
}

// UpdateStatus writes the new status and refreshes updated_at, and
// reports how many records changed. The status row predicate keeps a
// same-status write at zero modified records, so a no-op cannot be
// mistaken for a successful change.
func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (int64, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status <> $1
	`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", newStatus).Msg("repository: failed to update order status")
		return 0, fmt.Errorf("repository: failed to update order status for %s: %w", id, err)
	}

	modified := cmdTag.RowsAffected()
	if modified == 0 {
		// Either the order does not exist or the status already had
		// this value. The caller resolves which by fetching the order.
		return 0, ErrNotModified
	}

	return modified, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
