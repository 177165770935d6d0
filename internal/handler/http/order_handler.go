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

	"github.com/mpavlenko/kitchen-backend/internal/order"
)

type LineItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	LineItems []LineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	svc      order.Service
	validate *validator.Validate
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrderByID)
	router.Patch("/orders/{id}", h.handleUpdateOrderStatus)
	router.Delete("/orders/{id}", h.handleDeleteOrder)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode create order request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	lineItems := make([]order.LineItem, 0, len(requestPayload.LineItems))
	for _, item := range requestPayload.LineItems {
		productID, err := uuid.FromString(item.ProductID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid product id %q", item.ProductID))
			return
		}
		lineItems = append(lineItems, order.LineItem{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	created, err := h.svc.CreateOrder(r.Context(), lineItems)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create order")

		var clientMessage string
		switch {
		case errors.Is(err, order.ErrProductNotResolved):
			clientMessage = "One of products not found."
		case errors.Is(err, order.ErrInvalidOrder):
			clientMessage = err.Error()
		case errors.Is(err, order.ErrCatalogUnavailable):
			clientMessage = "Catalog unavailable"
		default:
			clientMessage = "Failed to create order"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parseListQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	o, err := h.svc.GetOrderByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, order.ErrNotFound) {
			log.Error().Err(err).Stringer("order_id", id).Msg("Failed to get order")
		}

		clientMessage := "Failed to get order"
		if errors.Is(err, order.ErrNotFound) {
			clientMessage = "Order not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode update order request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	modified, err := h.svc.UpdateOrderStatus(r.Context(), id, order.Status(requestPayload.Status))
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", id).Msg("Failed to update order status")

		var clientMessage string
		switch {
		case errors.Is(err, order.ErrNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, order.ErrNotModified):
			clientMessage = "Order not modified"
		case errors.Is(err, order.ErrInvalidStatus):
			clientMessage = err.Error()
		default:
			clientMessage = "Failed to update order"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("%d order updated.", modified)})
}

func (h *OrderHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), id); err != nil {
		if !errors.Is(err, order.ErrNotFound) {
			log.Error().Err(err).Stringer("order_id", id).Msg("Failed to delete order")
		}

		clientMessage := "Failed to delete order"
		if errors.Is(err, order.ErrNotFound) {
			clientMessage = "Order not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "1 order deleted."})
}
