package product_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpavlenko/kitchen-backend/internal/product"
)

type mockProductRepository struct {
	createFunc       func(ctx context.Context, p *product.Product) (uuid.UUID, error)
	listFunc         func(ctx context.Context, offset, limit int) ([]product.Product, error)
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*product.Product, error)
	updateFunc       func(ctx context.Context, p *product.Product) error
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
	existsByNameFunc func(ctx context.Context, name string) (bool, error)
}

func (m *mockProductRepository) Create(ctx context.Context, p *product.Product) (uuid.UUID, error) {
	return m.createFunc(ctx, p)
}

func (m *mockProductRepository) List(ctx context.Context, offset, limit int) ([]product.Product, error) {
	return m.listFunc(ctx, offset, limit)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockProductRepository) Update(ctx context.Context, p *product.Product) error {
	return m.updateFunc(ctx, p)
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return m.existsByNameFunc(ctx, name)
}

func TestProductService_CreateProduct(t *testing.T) {
	tests := []struct {
		name             string
		input            *product.Product
		existsByNameFunc func(ctx context.Context, name string) (bool, error)
		createFunc       func(ctx context.Context, p *product.Product) (uuid.UUID, error)
		wantErrIs        error
	}{
		{
			name:  "success",
			input: &product.Product{Name: "Margherita", Price: 7.50, Kind: product.KindFood},
			existsByNameFunc: func(ctx context.Context, name string) (bool, error) {
				return false, nil
			},
			createFunc: func(ctx context.Context, p *product.Product) (uuid.UUID, error) {
				id := uuid.Must(uuid.NewV4())
				p.ID = id
				return id, nil
			},
		},
		{
			name:      "empty_name",
			input:     &product.Product{Name: "", Price: 7.50, Kind: product.KindFood},
			wantErrIs: product.ErrInvalidProduct,
		},
		{
			name:      "negative_price",
			input:     &product.Product{Name: "Margherita", Price: -1, Kind: product.KindFood},
			wantErrIs: product.ErrInvalidProduct,
		},
		{
			name:      "unknown_kind",
			input:     &product.Product{Name: "Margherita", Price: 7.50, Kind: product.Kind("DESSERT")},
			wantErrIs: product.ErrInvalidProduct,
		},
		{
			name:  "duplicate_name",
			input: &product.Product{Name: "Margherita", Price: 7.50, Kind: product.KindFood},
			existsByNameFunc: func(ctx context.Context, name string) (bool, error) {
				return true, nil
			},
			wantErrIs: product.ErrNameExists,
		},
		{
			name:  "duplicate_name_concurrent_insert",
			input: &product.Product{Name: "Margherita", Price: 7.50, Kind: product.KindFood},
			existsByNameFunc: func(ctx context.Context, name string) (bool, error) {
				// The pre-check misses the race; the unique constraint
				// still reports the duplicate on insert.
				return false, nil
			},
			createFunc: func(ctx context.Context, p *product.Product) (uuid.UUID, error) {
				return uuid.Nil, product.ErrNameExists
			},
			wantErrIs: product.ErrNameExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockProductRepository{
				createFunc:       tt.createFunc,
				existsByNameFunc: tt.existsByNameFunc,
			}

			svc := product.NewService(mockRepo)
			created, err := svc.CreateProduct(context.Background(), tt.input)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, created)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, created)
			assert.NotEqual(t, uuid.Nil, created.ID)
		})
	}
}

func TestProductService_UpdateProduct(t *testing.T) {
	productID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))
	current := product.Product{
		ID:    productID,
		Name:  "Margherita",
		Price: 7.50,
		Kind:  product.KindFood,
	}

	strPtr := func(s string) *string { return &s }
	floatPtr := func(f float64) *float64 { return &f }
	kindPtr := func(k product.Kind) *product.Kind { return &k }

	tests := []struct {
		name      string
		upd       product.Update
		wantErrIs error
		wantPrice float64
		wantName  string
		wantKind  product.Kind
	}{
		{
			name:      "price_change",
			upd:       product.Update{Price: floatPtr(8.00)},
			wantName:  "Margherita",
			wantPrice: 8.00,
			wantKind:  product.KindFood,
		},
		{
			name:      "all_fields_change",
			upd:       product.Update{Name: strPtr("Diavola"), Price: floatPtr(9.00), Kind: kindPtr(product.KindOther)},
			wantName:  "Diavola",
			wantPrice: 9.00,
			wantKind:  product.KindOther,
		},
		{
			name:      "no_fields",
			upd:       product.Update{},
			wantErrIs: product.ErrInvalidProduct,
		},
		{
			name:      "same_values_not_modified",
			upd:       product.Update{Name: strPtr("Margherita"), Price: floatPtr(7.50)},
			wantErrIs: product.ErrNotModified,
		},
		{
			name:      "empty_name",
			upd:       product.Update{Name: strPtr("")},
			wantErrIs: product.ErrInvalidProduct,
		},
		{
			name:      "negative_price",
			upd:       product.Update{Price: floatPtr(-0.5)},
			wantErrIs: product.ErrInvalidProduct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			mockRepo := &mockProductRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*product.Product, error) {
					p := current
					return &p, nil
				},
				updateFunc: func(ctx context.Context, p *product.Product) error {
					updated = true
					return nil
				},
			}

			svc := product.NewService(mockRepo)
			result, err := svc.UpdateProduct(context.Background(), productID, tt.upd)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.False(t, updated, "repository must not be written on rejected update")
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, updated)
			assert.Equal(t, tt.wantName, result.Name)
			assert.Equal(t, tt.wantPrice, result.Price)
			assert.Equal(t, tt.wantKind, result.Kind)
		})
	}
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	mockRepo := &mockProductRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*product.Product, error) {
			return nil, product.ErrNotFound
		},
	}

	price := 1.0
	svc := product.NewService(mockRepo)
	_, err := svc.UpdateProduct(context.Background(), uuid.Must(uuid.NewV4()), product.Update{Price: &price})

	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductService_GetProductByID(t *testing.T) {
	productID := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))

	mockRepo := &mockProductRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*product.Product, error) {
			if id == productID {
				return &product.Product{ID: productID, Name: "Margherita", Price: 7.50, Kind: product.KindFood}, nil
			}
			return nil, product.ErrNotFound
		},
	}

	svc := product.NewService(mockRepo)

	p, err := svc.GetProductByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, "Margherita", p.Name)

	_, err = svc.GetProductByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := &mockProductRepository{
		deleteFunc: func(ctx context.Context, id uuid.UUID) error {
			return product.ErrNotFound
		},
	}

	svc := product.NewService(mockRepo)
	err := svc.DeleteProduct(context.Background(), uuid.Must(uuid.NewV4()))

	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestKind_Valid(t *testing.T) {
	for _, k := range []product.Kind{product.KindFood, product.KindCocktail, product.KindReadyMade, product.KindOther} {
		assert.True(t, k.Valid(), k.String())
	}
	assert.False(t, product.Kind("DESSERT").Valid())
	assert.False(t, product.Kind("").Valid())
}

func TestProductService_ListProducts_PropagatesError(t *testing.T) {
	mockRepo := &mockProductRepository{
		listFunc: func(ctx context.Context, offset, limit int) ([]product.Product, error) {
			return nil, errors.New("query failed")
		},
	}

	svc := product.NewService(mockRepo)
	_, err := svc.ListProducts(context.Background(), 0, 0)

	assert.Error(t, err)
}
