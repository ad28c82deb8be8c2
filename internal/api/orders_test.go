package api

import (
	"net/http"
	"testing"

	"github.com/mmiiot/factoryline-core/internal/production"
)

// TestListOrders verifies the order listing endpoint.
func TestListOrders(t *testing.T) {
	ts := newTestServer(t)
	ts.seedOrder(t, "ORD-001", 2)
	ts.seedOrder(t, "ORD-002", 1)

	var resp OrdersResponse
	rec := ts.request(t, http.MethodGet, "/api/v1/orders", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Count != 2 {
		t.Fatalf("Count = %d, want 2", resp.Count)
	}
	// Newest first
	if resp.Orders[0].OrderCode != "ORD-002" {
		t.Errorf("first order = %q, want ORD-002", resp.Orders[0].OrderCode)
	}
}

// TestGetOrder verifies single-order lookup and error responses.
func TestGetOrder(t *testing.T) {
	ts := newTestServer(t)
	id := ts.seedOrder(t, "ORD-001", 2)

	t.Run("found", func(t *testing.T) {
		var order production.Order
		rec := ts.request(t, http.MethodGet, "/api/v1/orders/1", &order)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if order.ID != id || order.OrderCode != "ORD-001" {
			t.Errorf("order = %+v, want id %d code ORD-001", order, id)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/orders/999", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/orders/abc", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestOrderProducts verifies the product listing endpoint.
func TestOrderProducts(t *testing.T) {
	ts := newTestServer(t)
	id := ts.seedOrder(t, "ORD-001", 2)
	ts.seedProduct(t, id, "SN-001", production.ProductScheduled)
	ts.seedProduct(t, id, "SN-002", production.ProductScheduled)

	t.Run("lists products id ascending", func(t *testing.T) {
		var resp ProductsResponse
		rec := ts.request(t, http.MethodGet, "/api/v1/orders/1/products", &resp)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if resp.Count != 2 {
			t.Fatalf("Count = %d, want 2", resp.Count)
		}
		if resp.Products[0].SerialNumber != "SN-001" {
			t.Errorf("first product = %q, want SN-001", resp.Products[0].SerialNumber)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/orders/999/products", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

// TestNormalizeOrder verifies the repair endpoint.
func TestNormalizeOrder(t *testing.T) {
	ts := newTestServer(t)

	t.Run("creates missing products", func(t *testing.T) {
		ts.seedOrder(t, "ORD-001", 3)

		var result production.NormalizeResult
		rec := ts.request(t, http.MethodPost, "/api/v1/orders/1/normalize", &result)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if result.Created != 3 || result.Deleted != 0 {
			t.Errorf("result = %+v, want 3 created 0 deleted", result)
		}

		var resp ProductsResponse
		ts.request(t, http.MethodGet, "/api/v1/orders/1/products", &resp)
		if resp.Count != 3 {
			t.Errorf("product count after normalize = %d, want 3", resp.Count)
		}
	})

	t.Run("deletes excess products", func(t *testing.T) {
		id := ts.seedOrder(t, "ORD-002", 1)
		ts.seedProduct(t, id, "SN-A", production.ProductScheduled)
		ts.seedProduct(t, id, "SN-B", production.ProductScheduled)
		ts.seedProduct(t, id, "SN-C", production.ProductScheduled)

		var result production.NormalizeResult
		rec := ts.request(t, http.MethodPost, "/api/v1/orders/2/normalize", &result)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if result.Deleted != 2 || result.Created != 0 {
			t.Errorf("result = %+v, want 2 deleted 0 created", result)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		rec := ts.request(t, http.MethodPost, "/api/v1/orders/999/normalize", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
