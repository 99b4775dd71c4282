package handlers_test

import (
	"math"
	"net/http"
	"strings"
	"testing"

	"minimarket/internal/domain"
	"minimarket/internal/services"
)

type cartResp struct {
	Items []domain.CartLine `json:"items"`
	Total float64           `json:"total"`
}

var checkoutForm = map[string]any{
	"nombre":      "Ana",
	"telefono":    "3001234567",
	"email":       customerEmail,
	"direccion":   "Calle 10 # 5-20",
	"barrio":      "Centro",
	"metodo_pago": "efectivo",
	"total":       1, // tampered client total
}

func TestGuestCartIsDroppedOnLogin(t *testing.T) {
	ta := newTestApp(t)

	resp, body := ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-pan", "qty": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest add: %d %s", resp.StatusCode, body)
	}
	sid := sidCookie(resp)
	if got := decode[cartResp](t, body); got.Total != 3000 {
		t.Fatalf("guest total: got %v want 3000", got.Total)
	}

	resp, _ = ta.do(t, "POST", "/api/v1/orders", checkoutForm, sid)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("guest checkout: expected 401, got %d", resp.StatusCode)
	}

	ta.login(t, customerEmail, seedPassword, sid)
	_, body = ta.do(t, "GET", "/api/v1/cart", nil, sid)
	if got := decode[cartResp](t, body); len(got.Items) != 0 {
		t.Fatalf("expected empty cart after login, got %+v", got.Items)
	}
}

func TestCartLimits(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, customerEmail, seedPassword, nil)

	resp, _ := ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-cafe", "qty": 5}, sid)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("over stock: expected 409, got %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-nada", "qty": 1}, sid)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-cafe", "qty": 4}, sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, "PUT", "/api/v1/cart/prod-cafe", map[string]any{"qty": 0}, sid)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("qty 0: expected 400, got %d", resp.StatusCode)
	}
	resp, body := ta.do(t, "PUT", "/api/v1/cart/prod-cafe", map[string]any{"qty": 2}, sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	if got := decode[cartResp](t, body); got.Total != 24000 {
		t.Fatalf("total after update: got %v want 24000", got.Total)
	}
	_, body = ta.do(t, "DELETE", "/api/v1/cart/prod-cafe", nil, sid)
	if got := decode[cartResp](t, body); len(got.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", got.Items)
	}
}

// The stored total is recomputed on the server whatever the client sends.
func TestPlaceOrderUsesServerTotals(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, customerEmail, seedPassword, nil)

	ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-leche", "qty": 2}, sid)
	ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-pan", "qty": 1}, sid)

	resp, _ := ta.do(t, "POST", "/api/v1/orders", map[string]any{"nombre": "Ana"}, sid)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("incomplete contact: expected 400, got %d", resp.StatusCode)
	}

	resp, body := ta.do(t, "POST", "/api/v1/orders", checkoutForm, sid)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place: expected 201, got %d: %s", resp.StatusCode, body)
	}
	o := decode[domain.Order](t, body)
	if o.Total != 5500 || o.Status != domain.StatusPending || len(o.Lines) != 2 {
		t.Fatalf("unexpected order: %+v", o)
	}

	_, body = ta.do(t, "GET", "/api/v1/cart", nil, sid)
	if got := decode[cartResp](t, body); len(got.Items) != 0 {
		t.Fatalf("cart not cleared: %+v", got.Items)
	}
	resp, _ = ta.do(t, "POST", "/api/v1/orders", checkoutForm, sid)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty cart checkout: expected 400, got %d", resp.StatusCode)
	}

	_, body = ta.do(t, "GET", "/api/v1/orders", nil, sid)
	if hist := decode[[]domain.Order](t, body); len(hist) != 1 || hist[0].ID != o.ID {
		t.Fatalf("history: %+v", hist)
	}

	resp, body = ta.do(t, "GET", "/api/v1/orders/"+o.ID+"/receipt", nil, sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("receipt: %d", resp.StatusCode)
	}
	r := decode[services.Receipt](t, body)
	if r.Tax != 1045 || r.Subtotal != 4455 || r.Total != 5500 {
		t.Fatalf("receipt numbers: %+v", r)
	}

	resp, body = ta.do(t, "GET", "/orders/"+o.ID+"/receipt", nil, sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("receipt page: %d", resp.StatusCode)
	}
	page := string(body)
	for _, want := range []string{o.ID, "1045.00", "4455.00", "5500.00", "Leche entera"} {
		if !strings.Contains(page, want) {
			t.Fatalf("receipt page missing %q", want)
		}
	}
}

func TestOrderOwnership(t *testing.T) {
	ta := newTestApp(t)
	ana := ta.login(t, customerEmail, seedPassword, nil)
	ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-arroz", "qty": 1}, ana)
	_, body := ta.do(t, "POST", "/api/v1/orders", checkoutForm, ana)
	o := decode[domain.Order](t, body)

	ta.do(t, "POST", "/api/v1/auth/signup", map[string]string{"email": "luis@laeconomia.test", "password": "Secr3t!xx"})
	luis := ta.login(t, "luis@laeconomia.test", "Secr3t!xx", nil)
	resp, _ := ta.do(t, "GET", "/api/v1/orders/"+o.ID, nil, luis)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign order: expected 404, got %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, "GET", "/orders/"+o.ID+"/receipt", nil, luis)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign receipt page: expected 404, got %d", resp.StatusCode)
	}

	admin := ta.login(t, adminEmail, seedPassword, nil)
	resp, _ = ta.do(t, "GET", "/api/v1/orders/"+o.ID, nil, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin view: expected 200, got %d", resp.StatusCode)
	}
}

func TestCartHugeQuantityIsBounded(t *testing.T) {
	ta := newTestApp(t)
	resp, body := ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-leche", "qty": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add: %d %s", resp.StatusCode, body)
	}
	sid := sidCookie(resp)

	resp, _ = ta.do(t, "POST", "/api/v1/cart", map[string]any{"productId": "prod-leche", "qty": math.MaxInt}, sid)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("huge qty: expected 409, got %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, "PUT", "/api/v1/cart/prod-leche", map[string]any{"qty": math.MaxInt}, sid)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("huge update: expected 409, got %d", resp.StatusCode)
	}

	_, body = ta.do(t, "GET", "/api/v1/cart", nil, sid)
	got := decode[cartResp](t, body)
	if len(got.Items) != 1 || got.Items[0].Quantity != 1 || got.Total != 2000 {
		t.Fatalf("cart changed: %+v", got)
	}
}
