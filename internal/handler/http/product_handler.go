package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mpavlenko/kitchen-backend/internal/product"
)

type CreateProductRequest struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
	Kind  string  `json:"kind" validate:"required"`
}

type UpdateProductRequest struct {
	Name  *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Price *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Kind  *string  `json:"kind,omitempty" validate:"omitempty,min=1"`
}

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	svc      product.Service
	validate *validator.Validate
}

func NewProductHandler(svc product.Service) *ProductHandler {
	return &ProductHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreateProduct)
	router.Get("/products", h.handleListProducts)
	router.Get("/products/{id}", h.handleGetProductByID)
	router.Patch("/products/{id}", h.handleUpdateProduct)
	router.Delete("/products/{id}", h.handleDeleteProduct)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode create product request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	p := product.Product{
		Name:  requestPayload.Name,
		Price: requestPayload.Price,
		Kind:  product.Kind(requestPayload.Kind),
	}

	created, err := h.svc.CreateProduct(r.Context(), &p)
	if err != nil {
		log.Warn().Err(err).Str("name", requestPayload.Name).Msg("Failed to create product")

		var clientMessage string
		switch {
		case errors.Is(err, product.ErrNameExists):
			clientMessage = "Product name already exists"
		case errors.Is(err, product.ErrInvalidProduct):
			clientMessage = err.Error()
		default:
			clientMessage = "Failed to create product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parseListQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.svc.ListProducts(r.Context(), offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleGetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.svc.GetProductByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, product.ErrNotFound) {
			log.Error().Err(err).Stringer("product_id", id).Msg("Failed to get product")
		}

		clientMessage := "Failed to get product"
		if errors.Is(err, product.ErrNotFound) {
			clientMessage = "Product not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode update product request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	upd := product.Update{
		Name:  requestPayload.Name,
		Price: requestPayload.Price,
	}
	if requestPayload.Kind != nil {
		kind := product.Kind(*requestPayload.Kind)
		upd.Kind = &kind
	}

	updated, err := h.svc.UpdateProduct(r.Context(), id, upd)
	if err != nil {
		log.Warn().Err(err).Stringer("product_id", id).Msg("Failed to update product")

		var clientMessage string
		switch {
		case errors.Is(err, product.ErrNotFound):
			clientMessage = "Product not found"
		case errors.Is(err, product.ErrNotModified):
			clientMessage = "Product not modified"
		case errors.Is(err, product.ErrNameExists):
			clientMessage = "Product name already exists"
		case errors.Is(err, product.ErrInvalidProduct):
			clientMessage = err.Error()
		default:
			clientMessage = "Failed to update product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		if !errors.Is(err, product.ErrNotFound) {
			log.Error().Err(err).Stringer("product_id", id).Msg("Failed to delete product")
		}

		clientMessage := "Failed to delete product"
		if errors.Is(err, product.ErrNotFound) {
			clientMessage = "Product not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "1 product deleted."})
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid id parameter %q", idParam))
		return uuid.Nil, false
	}
	return id, true
}
