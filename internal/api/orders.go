package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmiiot/factoryline-core/internal/production"
)

// OrdersResponse carries the full order list, newest first.
type OrdersResponse struct {
	Orders []production.Order `json:"orders"`
	Count  int                `json:"count"`
}

// ProductsResponse carries an order's products, id ascending.
type ProductsResponse struct {
	Products []production.Product `json:"products"`
	Count    int                  `json:"count"`
}

// handleListOrders returns all production orders, newest first.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.repo.ListOrders(r.Context())
	if err != nil {
		s.logger.Error("failed to list orders", "error", err)
		writeInternalError(w, "failed to list orders")
		return
	}

	writeJSON(w, http.StatusOK, OrdersResponse{
		Orders: orders,
		Count:  len(orders),
	})
}

// handleGetOrder returns a single order by ID.
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := s.repo.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, production.ErrOrderNotFound) {
			writeNotFound(w, "order not found")
			return
		}
		s.logger.Error("failed to get order", "order_id", id, "error", err)
		writeInternalError(w, "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// handleOrderProducts returns the products of an order, id ascending.
func (s *Server) handleOrderProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	// Distinguish a missing order from an order with no products.
	if _, err := s.repo.GetOrder(r.Context(), id); err != nil {
		if errors.Is(err, production.ErrOrderNotFound) {
			writeNotFound(w, "order not found")
			return
		}
		s.logger.Error("failed to get order", "order_id", id, "error", err)
		writeInternalError(w, "failed to get order")
		return
	}

	products, err := s.repo.ProductsForOrder(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list products", "order_id", id, "error", err)
		writeInternalError(w, "failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, ProductsResponse{
		Products: products,
		Count:    len(products),
	})
}

// handleNormalizeOrder reconciles an order's product rows with its quantity:
// excess rows are deleted, kept rows are reset to scheduled, missing rows are
// created with fresh serials. The whole repair is one transaction.
func (s *Server) handleNormalizeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	result, err := s.repo.Normalize(r.Context(), id)
	if err != nil {
		if errors.Is(err, production.ErrOrderNotFound) {
			writeNotFound(w, "order not found")
			return
		}
		s.logger.Error("failed to normalize order", "order_id", id, "error", err)
		writeInternalError(w, "failed to normalize order")
		return
	}

	s.logger.Info("order normalized",
		"order_id", id,
		"created", result.Created,
		"deleted", result.Deleted,
		"updated", result.Updated,
	)

	writeJSON(w, http.StatusOK, result)
}

// orderIDParam parses the {id} route parameter. On failure it writes a 400
// response and returns ok=false.
func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeBadRequest(w, "order id must be a positive integer")
		return 0, false
	}
	return id, true
}
