package product

import (
	"time"

	"github.com/gofrs/uuid"
)

// Kind classifies a catalog entry. It drives the fulfillment status
// derivation at order creation: anything that is not ready-made has to
// be prepared by the kitchen first.
type Kind string

const (
	KindFood      Kind = "FOOD"
	KindCocktail  Kind = "COCKTAIL"
	KindReadyMade Kind = "READY_MADE"
	KindOther     Kind = "OTHER"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) Valid() bool {
	switch k {
	case KindFood, KindCocktail, KindReadyMade, KindOther:
		return true
	}
	return false
}

// Product is a menu entry of the catalog.
//
// Price is a float64. Totals computed from it are plain double-precision
// arithmetic and are not reconciled against decimal rounding.
type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	Kind      Kind      `json:"kind" db:"kind"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Update carries a partial product change. Nil fields are left as is.
type Update struct {
	Name  *string
	Price *float64
	Kind  *Kind
}

func (u Update) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Kind == nil
}
