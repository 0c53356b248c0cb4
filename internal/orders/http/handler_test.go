package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weprixetechnologies/cly-admin/internal/orders"
	"github.com/weprixetechnologies/cly-admin/internal/orders/export"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

type stubPDF struct{}

func (stubPDF) RenderHTML(_ context.Context, _ string) ([]byte, error) {
	return []byte("%PDF-1.7 stub"), nil
}

func detailOrder(status orders.Status) orders.Order {
	return orders.Order{
		ID:            "ord-1",
		Number:        "CLY-1001",
		Status:        status,
		PaymentStatus: orders.PaymentNotPaid,
		Amount:        500,
		CustomerName:  "Anita Desai",
		CustomerPhone: "+91 98000 00000",
		AddressLine:   "14 MG Road",
		City:          "Pune",
		State:         "Maharashtra",
		Pincode:       "411001",
		CreatedAt:     time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
		Items: []orders.Item{
			{ID: "item-1", Name: "Silk Dupatta", UnitPrice: 100, Requested: 3},
		},
	}
}

func newDetailHandler(t *testing.T, order orders.Order) (*Handler, *shared.Session) {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/order/admin/ord-1":
			_ = json.NewEncoder(w).Encode(order)
		case "/order/admin/ord-1/payment":
			_ = json.NewEncoder(w).Encode([]orders.Payment{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(api.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := shared.NewSessionManager(rdb, "cly_session", "test-secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetTokens("test-access", "test-refresh")

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	client := upstream.NewClient(api.URL, 5*time.Second, logger, sessions)
	service := orders.NewService(orders.NewGateway(client), nil, logger)

	templates, err := view.NewEngine()
	require.NoError(t, err)
	invoices, err := export.NewInvoiceRenderer(stubPDF{})
	require.NoError(t, err)

	return NewHandler(logger, service, templates, shared.NewCSRFManager("csrf-secret"), invoices), sess
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func serveDetail(handler *Handler, sess *shared.Session, target string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Route("/orders", handler.MountRoutes)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDetailPendingOrderShowsDecisionForms(t *testing.T) {
	handler, sess := newDetailHandler(t, detailOrder(orders.StatusPending))

	rec := serveDetail(handler, sess, "/orders/ord-1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Accept Order")
	assert.Contains(t, body, "Reject Order")
	assert.NotContains(t, body, "Status Already Updated")
}

func TestDetailDecidedOrderLocksDecision(t *testing.T) {
	handler, sess := newDetailHandler(t, detailOrder(orders.StatusAccepted))

	rec := serveDetail(handler, sess, "/orders/ord-1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Status Already Updated")
	assert.Contains(t, body, "/orders/ord-1?force=1")
	assert.NotContains(t, body, "Accept Order")
	assert.NotContains(t, body, "Reject Order")
}

func TestDetailForceReexposesDecisionForms(t *testing.T) {
	handler, sess := newDetailHandler(t, detailOrder(orders.StatusAccepted))

	rec := serveDetail(handler, sess, "/orders/ord-1?force=1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Accept Order")
	assert.Contains(t, body, "Reject Order")
	assert.Contains(t, body, `name="force" value="1"`)
	assert.NotContains(t, body, "Status Already Updated")
}
