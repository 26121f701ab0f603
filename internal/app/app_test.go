package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightmarket/internal/config"
	"freightmarket/internal/database/dbtest"
	"freightmarket/internal/storage"
)

type client struct {
	t      *testing.T
	router http.Handler
	token  string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppEnv:       "test",
		JWTSecret:    "e2e-secret",
		JWTAccessTTL: time.Hour,
		SignedURLTTL: time.Minute,
		Storage:      config.StorageConfig{Backend: config.StorageLocal},
	}
	db := dbtest.Open(t, Models()...)

	s, err := NewServices(cfg, Deps{DB: db, Storage: storage.NewLocal(t.TempDir())})
	require.NoError(t, err)
	return NewRouter(cfg, s)
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *client) send(req *http.Request) (int, envelope) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func register(t *testing.T, router http.Handler, email, name string) (*client, int64) {
	t.Helper()
	c := &client{t: t, router: router}
	code, env := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":     email,
		"password":  "guclu-parola-123",
		"full_name": name,
	})
	require.Equal(t, http.StatusCreated, code)

	var res struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	c.token = res.AccessToken
	return c, res.User.ID
}

func decodeInto(t *testing.T, env envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestHealth(t *testing.T) {
	router := newTestApp(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMarketplaceFlow(t *testing.T) {
	router := newTestApp(t)
	shipper, shipperID := register(t, router, "yuk@example.com", "Ayşe Yılmaz")
	carrier, carrierID := register(t, router, "nakliye@example.com", "Mehmet Kaya")

	code, env := shipper.do(http.MethodPost, "/api/v1/listings", map[string]any{
		"listing_type":  "load_listing",
		"title":         "Bursa - İzmir paletli yük",
		"origin":        "Bursa",
		"destination":   "İzmir",
		"loading_date":  "2099-03-01",
		"delivery_date": "2099-03-02",
		"price_amount":  "18000",
	})
	require.Equal(t, http.StatusCreated, code, env.Error.Code)
	var created struct {
		ID string `json:"id"`
	}
	decodeInto(t, env, &created)

	// the carrier cannot touch the shipper's listing
	code, env = carrier.do(http.MethodPatch, "/api/v1/listings/"+created.ID, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = carrier.do(http.MethodPost, "/api/v1/offers", map[string]any{
		"listing_id":   created.ID,
		"offer_type":   "bid",
		"price_amount": "16500",
		"message":      "Tenteli tır hazır",
	})
	require.Equal(t, http.StatusCreated, code, env.Error.Code)
	var offer struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Version int    `json:"version"`
	}
	decodeInto(t, env, &offer)
	assert.Equal(t, "pending", offer.Status)

	code, env = shipper.do(http.MethodGet, "/api/v1/listings/"+created.ID+"/offers", nil)
	require.Equal(t, http.StatusOK, code)
	var forListing struct {
		Offers []struct {
			ID      string `json:"id"`
			Carrier struct {
				FullName string `json:"full_name"`
			} `json:"carrier"`
		} `json:"offers"`
	}
	decodeInto(t, env, &forListing)
	require.Len(t, forListing.Offers, 1)
	assert.Equal(t, "Mehmet Kaya", forListing.Offers[0].Carrier.FullName)

	code, env = shipper.do(http.MethodPost, "/api/v1/offers/"+offer.ID+"/accept", map[string]int{"version": offer.Version})
	require.Equal(t, http.StatusOK, code, env.Error.Code)

	code, env = shipper.do(http.MethodPost, "/api/v1/offers/"+offer.ID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", env.Error.Code)

	code, env = carrier.do(http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	var inbox struct {
		Notifications []struct {
			Type   string `json:"type"`
			UserID int64  `json:"user_id"`
		} `json:"notifications"`
		UnreadCount int64 `json:"unread_count"`
	}
	decodeInto(t, env, &inbox)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, "offer.accepted", inbox.Notifications[0].Type)
	assert.Equal(t, carrierID, inbox.Notifications[0].UserID)

	code, env = shipper.do(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unread_count":1}`, string(env.Data))

	code, env = shipper.do(http.MethodGet, "/api/v1/offers/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats struct {
		Received struct {
			Total    int `json:"total"`
			Accepted int `json:"accepted"`
		} `json:"received"`
	}
	decodeInto(t, env, &stats)
	assert.Equal(t, 1, stats.Received.Total)
	assert.Equal(t, 1, stats.Received.Accepted)

	code, _ = shipper.do(http.MethodGet, "/api/v1/profiles/"+jsonInt(shipperID), nil)
	assert.Equal(t, http.StatusOK, code)
}

// jpegBody starts with the JPEG signature the upload check sniffs for.
const jpegBody = "\xff\xd8\xff\xe0\x00\x10JFIF\x00tir"

func TestUploadAttachesToListing(t *testing.T) {
	router := newTestApp(t)
	shipper, _ := register(t, router, "yuk@example.com", "Ayşe Yılmaz")
	other, _ := register(t, router, "baska@example.com", "Can Demir")

	code, env := shipper.do(http.MethodPost, "/api/v1/listings", map[string]any{
		"listing_type":  "shipment_request",
		"title":         "Konya - Adana hububat",
		"origin":        "Konya",
		"destination":   "Adana",
		"loading_date":  "2099-05-01",
		"delivery_date": "2099-05-03",
	})
	require.Equal(t, http.StatusCreated, code, env.Error.Code)
	var created struct {
		ID string `json:"id"`
	}
	decodeInto(t, env, &created)

	imageRequest := func() *http.Request {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="tir.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(jpegBody))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+created.ID+"/images", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req
	}

	code, _ = other.send(imageRequest())
	assert.Equal(t, http.StatusForbidden, code)

	code, env = shipper.send(imageRequest())
	require.Equal(t, http.StatusCreated, code, env.Error.Code)

	code, env = shipper.do(http.MethodGet, "/api/v1/listings/"+created.ID, nil)
	require.Equal(t, http.StatusOK, code)
	var got struct {
		ImageURLs []string `json:"image_urls"`
	}
	decodeInto(t, env, &got)
	require.Len(t, got.ImageURLs, 1)
	assert.True(t, strings.HasSuffix(got.ImageURLs[0], "/image-0.jpg"), got.ImageURLs[0])

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, got.ImageURLs[0], nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jpegBody, w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	router := newTestApp(t)
	anon := &client{t: t, router: router}

	code, env := anon.do(http.MethodGet, "/api/v1/offers/sent", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AUTH_HEADER_MISSING", env.Error.Code)

	code, _ = anon.do(http.MethodGet, "/api/v1/listings", nil)
	assert.Equal(t, http.StatusOK, code)
}

func jsonInt(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
