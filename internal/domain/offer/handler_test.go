package offer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightmarket/internal/domain/listing"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		// tests pick the caller with a header instead of a token
		if id := c.GetHeader("X-Test-User"); id != "" {
			var uid int64
			_ = json.Unmarshal([]byte(id), &uid)
			c.Set("user_id", uid)
		}
	})
	RegisterRoutes(api, NewHandler(f.svc))
	return r
}

func do(r http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandler_OfferLifecycle(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)
	l := f.listing(t, shipperA, listing.TypeLoadListing, listing.StatusActive)

	w := do(r, http.MethodPost, "/api/v1/offers", "30", `{
		"listing_id": "`+l.ID+`",
		"offer_type": "quote",
		"price_amount": "8500.50",
		"price_currency": "EUR",
		"price_per": "per_ton",
		"expires_at": "2026-12-31T00:00:00Z"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data Offer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "8500.5", created.Data.PriceAmount.String())
	id := created.Data.ID

	w = do(r, http.MethodPost, "/api/v1/offers/"+id+"/accept", "30", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/v1/offers/"+id+"/accept", "10", `{"version": 7}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "STALE_OFFER", errorCode(t, w))

	w = do(r, http.MethodPost, "/api/v1/offers/"+id+"/accept", "10", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/offers/"+id+"/reject", "10", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", errorCode(t, w))

	w = do(r, http.MethodGet, "/api/v1/offers/stats", "10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Data Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Data.Received.Accepted)
}

func TestHandler_CreateErrors(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)
	svc := f.listing(t, shipperA, listing.TypeTransportService, listing.StatusActive)

	w := do(r, http.MethodPost, "/api/v1/offers", "30", `{"listing_id": "`+svc.ID+`", "offer_type": "bid", "price_amount": 100}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "TRANSPORT_SERVICE_LISTING", errorCode(t, w))

	w = do(r, http.MethodPost, "/api/v1/offers", "30", `{"listing_id": "gone", "offer_type": "bid", "price_amount": 100}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "LISTING_NOT_FOUND", errorCode(t, w))

	w = do(r, http.MethodPost, "/api/v1/offers", "30", `{"listing_id": "gone", "offer_type": "bid", "price_amount": -1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = do(r, http.MethodPost, "/api/v1/offers", "30", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
