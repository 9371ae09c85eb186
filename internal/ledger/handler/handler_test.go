package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"agritrace/internal/ledger/models"
	"agritrace/internal/ledger/service"
	"agritrace/internal/ledger/store"
	"agritrace/internal/payments"
	id "agritrace/pkg/domain"
	"agritrace/pkg/requestcontext"
	"agritrace/pkg/testutil"
)

// testAuth resolves the principal from the X-Principal header, standing in
// for the JWT middleware.
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.Header.Get("X-Principal"); p != "" {
			r = r.WithContext(requestcontext.WithPrincipal(r.Context(), id.Principal(p)))
		}
		next.ServeHTTP(w, r)
	})
}

func newLedgerRouter(t *testing.T) (http.Handler, *payments.MemoryBank) {
	t.Helper()
	bank := payments.NewMemoryBank()
	svc := service.New(store.NewInMemory(), bank)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r, testAuth)
	return r, bank
}

func registerProduct(t *testing.T, router http.Handler, owner string) id.ProductID {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/products", map[string]any{
		"name":           "Apples",
		"origin":         "FarmA",
		"harvested_at":   time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
		"price":          100,
		"certifications": []string{"USDA"},
	})
	req.Header.Set("X-Principal", owner)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	resp := testutil.UnmarshalResponse[struct {
		ProductID id.ProductID `json:"product_id"`
	}](t, rr)
	require.False(t, resp.ProductID.IsZero())
	return resp.ProductID
}

func TestRegisterProduct(t *testing.T) {
	router, _ := newLedgerRouter(t)

	productID := registerProduct(t, router, "alice")
	require.Equal(t, id.ProductID(1), productID)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/1"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	product := testutil.UnmarshalResponse[models.Product](t, rr)
	require.Equal(t, "Apples", product.Name)
	require.Equal(t, id.Principal("alice"), product.Owner)
	require.Equal(t, []id.Principal{"alice"}, product.History)
	require.True(t, product.Available)
	require.True(t, product.Organic)
}

func TestRegisterRequiresAuth(t *testing.T) {
	router, _ := newLedgerRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products", map[string]any{
		"name": "Apples", "origin": "FarmA", "price": 100,
		"harvested_at": time.Now().Format(time.RFC3339),
	})
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newLedgerRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products", map[string]any{
		"name": "", "origin": "FarmA", "price": 100,
		"harvested_at": time.Now().Format(time.RFC3339),
	})
	req.Header.Set("X-Principal", "alice")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
}

func TestGetUnknownProduct(t *testing.T) {
	router, _ := newLedgerRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/42"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/abc"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

func TestTransferFlow(t *testing.T) {
	router, bank := newLedgerRouter(t)
	productID := registerProduct(t, router, "alice")
	bank.Deposit("bob", 500)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products/"+productID.String()+"/transfer", map[string]any{
		"new_owner": "bob",
		"payment":   120,
	})
	req.Header.Set("X-Principal", "alice")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	require.Equal(t, uint64(400), bank.Balance("bob"))
	require.Equal(t, uint64(100), bank.Balance("alice"))

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/"+productID.String()+"/history"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	history := testutil.UnmarshalResponse[struct {
		Owners []id.Principal `json:"owners"`
	}](t, rr)
	require.Equal(t, []id.Principal{"alice", "bob"}, history.Owners)
}

func TestTransferInsufficientPayment(t *testing.T) {
	router, bank := newLedgerRouter(t)
	productID := registerProduct(t, router, "alice")
	bank.Deposit("bob", 500)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products/"+productID.String()+"/transfer", map[string]any{
		"new_owner": "bob",
		"payment":   50,
	})
	req.Header.Set("X-Principal", "alice")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusPaymentRequired, "transfer_failed")
}

func TestTransferByNonOwner(t *testing.T) {
	router, bank := newLedgerRouter(t)
	productID := registerProduct(t, router, "alice")
	bank.Deposit("carol", 500)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products/"+productID.String()+"/transfer", map[string]any{
		"new_owner": "carol",
		"payment":   100,
	})
	req.Header.Set("X-Principal", "mallory")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}

func TestTransferReprice(t *testing.T) {
	router, bank := newLedgerRouter(t)
	productID := registerProduct(t, router, "alice")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products/"+productID.String()+"/transfer/reprice", map[string]any{
		"new_owner": "bob",
		"new_price": 250,
	})
	req.Header.Set("X-Principal", "alice")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	require.Equal(t, uint64(0), bank.Balance("alice"), "administrative transfer moves no value")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/"+productID.String()))
	product := testutil.UnmarshalResponse[models.Product](t, rr)
	require.Equal(t, id.Principal("bob"), product.Owner)
	require.Equal(t, uint64(250), product.Price)
}

func TestCertify(t *testing.T) {
	router, _ := newLedgerRouter(t)
	productID := registerProduct(t, router, "alice")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products/"+productID.String()+"/certifications", map[string]any{
		"certification": "Fair Trade",
	})
	req.Header.Set("X-Principal", "alice")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/"+productID.String()))
	product := testutil.UnmarshalResponse[models.Product](t, rr)
	require.Equal(t, []string{"USDA", "Fair Trade"}, product.Certifications)
}

func TestAvailabilityAndPrice(t *testing.T) {
	router, _ := newLedgerRouter(t)
	productID := registerProduct(t, router, "alice")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/products/"+productID.String()+"/availability", map[string]any{
		"available": false,
	})
	req.Header.Set("X-Principal", "alice")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	req = testutil.NewJSONRequest(t, http.MethodPut, "/products/"+productID.String()+"/price", map[string]any{
		"price": 175,
	})
	req.Header.Set("X-Principal", "alice")
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/"+productID.String()))
	product := testutil.UnmarshalResponse[models.Product](t, rr)
	require.False(t, product.Available)
	require.Equal(t, uint64(175), product.Price)
}

func TestAvailabilityRequiresFlag(t *testing.T) {
	router, _ := newLedgerRouter(t)
	productID := registerProduct(t, router, "alice")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/products/"+productID.String()+"/availability", map[string]any{})
	req.Header.Set("X-Principal", "alice")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
}

func TestCount(t *testing.T) {
	router, _ := newLedgerRouter(t)
	registerProduct(t, router, "alice")
	registerProduct(t, router, "alice")

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/products/count"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[struct {
		Total uint64 `json:"total"`
	}](t, rr)
	require.Equal(t, uint64(2), resp.Total)
}
