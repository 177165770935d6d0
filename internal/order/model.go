package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// LineItem references a catalog product and a quantity. Prices are not
// embedded per line; only the order-level total is recorded.
type LineItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Order is a materialized order. TotalPrice and the initial Status are
// fixed when the order is created; later catalog changes never rewrite
// them. UpdatedAt moves only on status updates.
type Order struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	LineItems  []LineItem `json:"line_items" db:"-"`
	TotalPrice float64    `json:"total_price" db:"total_price"`
	Status     Status     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
