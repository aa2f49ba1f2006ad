package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kart-discount/internal/handler"
	"github.com/xenking/kart-discount/internal/loyalty"
	"github.com/xenking/kart-discount/pkg/health"
)

func newTestServer(t *testing.T) (*httptest.Server, *health.Health) {
	t.Helper()

	mp := metricnoop.NewMeterProvider()
	idx := loyalty.NewIndex([]string{"LC-0001"}, loyalty.Options{Capacity: 100})
	h, err := handler.NewHandler(handler.HandlerConfig{Cards: idx, MeterProvider: mp})
	require.NoError(t, err)

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("loyalty", time.Second, health.NonEmptyCheck("loyalty index", idx.Len))

	srv := httptest.NewServer(newRouter(zap.NewNop(), tracenoop.NewTracerProvider(), mp, healthSvc, h.Routes()))
	t.Cleanup(srv.Close)
	return srv, healthSvc
}

func call(t *testing.T, srv *httptest.Server, method, path, body string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestRouter_Quote(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := call(t, srv, http.MethodPost, "/api/quote",
		`{"client_type":"regular","total":110,"items_count":1,"loyalty_card":"lc-0001"}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.JSONEq(t, `{"client_type":"Regular","total":110,"final_price":101.2,"discount":0.08,"raw_discount":0.08,"capped":false,"strategy_resolved":true}`, body)
}

func TestRouter_Tiers(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := call(t, srv, http.MethodGet, "/api/tiers", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"tiers":["Premium","Regular","VIP"]}`, body)
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := call(t, srv, http.MethodGet, "/livez", "", http.Header{
		"X-Request-Id": []string{"custom-request-id-12345"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "custom-request-id-12345", resp.Header.Get("X-Request-ID"))
}

func TestRouter_Readiness(t *testing.T) {
	srv, healthSvc := newTestServer(t)

	resp, _ := call(t, srv, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	healthSvc.SetReady(true)
	resp, body := call(t, srv, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestRouter_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := call(t, srv, http.MethodGet, "/api/product", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
