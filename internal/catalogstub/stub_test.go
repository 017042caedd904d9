package catalogstub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashendes/welcome-home/internal/catalog"
	"github.com/ashendes/welcome-home/internal/models"
	"github.com/ashendes/welcome-home/internal/patterns"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListProductsFilters(t *testing.T) {
	r := New(DefaultProducts()).Router()

	w := get(t, r, "/products")
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.CatalogItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, len(DefaultProducts()))

	w = get(t, r, "/products?category=coffee")
	var coffee []models.CatalogItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coffee))
	require.Len(t, coffee, 1)
	assert.Equal(t, 1225, coffee[0].ID)

	w = get(t, r, "/products?available=false")
	var out []models.CatalogItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Ribeye Steak", out[0].Name)

	w = get(t, r, "/products?results=2")
	var two []models.CatalogItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &two))
	assert.Len(t, two, 2)

	w = get(t, r, "/products?results=50")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProduct(t *testing.T) {
	r := New(DefaultProducts()).Router()

	w := get(t, r, "/products/3674")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sourdough Loaf")

	assert.Equal(t, http.StatusNotFound, get(t, r, "/products/1").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/products/abc").Code)
}

func TestChaosEndpoints(t *testing.T) {
	s := New(DefaultProducts())
	r := s.Router()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chaos/enable", strings.NewReader(`{"failureRate": 1}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/products").Code)

	w = get(t, r, "/status")
	assert.Contains(t, w.Body.String(), `"failure_rate":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chaos/disable", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/products").Code)
}

func TestFailureRateIsClamped(t *testing.T) {
	s := New(nil)
	s.SetFailureRate(7)
	_, rate := s.chaos()
	assert.Equal(t, 1.0, rate)
	s.SetFailureRate(-1)
	_, rate = s.chaos()
	assert.Equal(t, 0.0, rate)
}

func TestProviderAgainstStub(t *testing.T) {
	s := New(DefaultProducts())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	p := catalog.New(catalog.Options{
		BaseURL: ts.URL,
		Breaker: patterns.BreakerSettings{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Minute},
	})
	items, err := p.Products(context.Background(), "fresh-produce")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	s.SetFailureRate(1)
	p.Invalidate()
	for i := 0; i < 2; i++ {
		_, err = p.Products(context.Background(), "")
		require.Error(t, err)
	}
	assert.Equal(t, "open", p.BreakerState())
}

func TestSlowStubTripsProviderTimeout(t *testing.T) {
	s := New(DefaultProducts())
	s.SetSlowDelay(150 * time.Millisecond)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	p := catalog.New(catalog.Options{BaseURL: ts.URL, Timeout: 30 * time.Millisecond})
	_, err := p.Products(context.Background(), "")
	assert.Error(t, err)
}
