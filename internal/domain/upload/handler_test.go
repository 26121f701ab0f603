package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightmarket/internal/domain/listing"
	"freightmarket/internal/storage"
)

type fakeAttachments struct {
	added   []string
	removed []string
	err     error
}

func (f *fakeAttachments) AddAttachment(_ context.Context, id string, _ int64, kind listing.AttachmentKind, url string) (*listing.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, url)
	l := &listing.Listing{ID: id}
	if kind == listing.AttachmentImage {
		l.ImageURLs = f.added
	} else {
		l.DocumentURLs = f.added
	}
	return l, nil
}

func (f *fakeAttachments) RemoveAttachment(_ context.Context, id string, _ int64, _ listing.AttachmentKind, url string) (*listing.Listing, error) {
	f.removed = append(f.removed, url)
	return &listing.Listing{ID: id}, nil
}

func setupRouter(t *testing.T, att *fakeAttachments) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(t)
	h := NewHandler(svc, att)

	r := gin.New()
	api := r.Group("/api/v1")
	RegisterPublicRoutes(api, h)
	protected := api.Group("")
	protected.Use(func(c *gin.Context) {
		if id, err := strconv.ParseInt(c.GetHeader("X-Test-User"), 10, 64); err == nil {
			c.Set("user_id", id)
		}
		c.Next()
	})
	RegisterRoutes(protected, h, func(c *gin.Context) { c.Next() })
	return r, svc
}

func multipartBody(t *testing.T, field, name, contentType string, body []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	pw, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = pw.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandler_UploadImageAndServe(t *testing.T) {
	att := &fakeAttachments{}
	r, _ := setupRouter(t, att)

	body, ct := multipartBody(t, "file", "truck.png", "image/png", []byte(pngMagic+"png-bytes"), map[string]string{"index": "1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/lst-1/images", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User", "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, att.added, 1)
	assert.Equal(t, "/api/v1/storage/listings/42/lst-1/image-1.png", att.added[0])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, att.added[0], nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngMagic+"png-bytes", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestHandler_RejectsOversizedImage(t *testing.T) {
	att := &fakeAttachments{}
	r, _ := setupRouter(t, att)

	body, ct := multipartBody(t, "file", "big.png", "image/png", bytes.Repeat([]byte{1}, MaxImageSize+1), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/lst-1/images", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User", "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_FILE", env.Error.Code)
	assert.Equal(t, msgImageTooLarge, env.Error.Message)
	assert.Empty(t, att.added)
}

func TestHandler_DeleteDetachesFromListing(t *testing.T) {
	att := &fakeAttachments{}
	r, svc := setupRouter(t, att)

	res, err := svc.UploadImage(context.Background(), 42, formFile(t, "a.png", "image/png", pngMagic), "lst-1", 0)
	require.NoError(t, err)

	payload := `{"path":"` + res.Path + `","is_image":true,"listing_id":"lst-1"}`

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/uploads", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/uploads", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{res.URL}, att.removed)
}

func TestHandler_PrivateObjectNeedsToken(t *testing.T) {
	r, svc := setupRouter(t, &fakeAttachments{})

	res, err := svc.UploadVerificationDocument(context.Background(), 42, formFile(t, "kimlik.pdf", "application/pdf", pdfMagic+"id"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, svc.URL(BucketVerification, res.Path), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, res.URL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfMagic+"id", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestHandler_HTMLDisguisedAsImageRejected(t *testing.T) {
	att := &fakeAttachments{}
	r, svc := setupRouter(t, att)

	body, ct := multipartBody(t, "file", "x.html", "image/png", []byte("<script>alert(document.cookie)</script>"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/lst-1/images", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User", "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, att.added)
	for _, p := range []string{"42/lst-1/image-0.html", "42/lst-1/image-0.png"} {
		_, _, err := svc.Open(context.Background(), BucketListings, p, "")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound, p)
	}
}

func TestHandler_UploadDocumentsAttachFailure(t *testing.T) {
	att := &fakeAttachments{err: errors.New("db down")}
	r, svc := setupRouter(t, att)

	body, ct := multipartBody(t, "files", "fatura.pdf", "application/pdf", []byte(pdfMagic+"fatura"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/lst-1/documents", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User", "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	var batch struct {
		Uploaded []*Result `json:"uploaded"`
		Failed   []Failure `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &batch))
	assert.Empty(t, batch.Uploaded)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, msgAttachFailed, batch.Failed[0].Error)

	name := "document-" + strconv.FormatInt(svc.now().UnixMilli(), 10) + "-fatura.pdf"
	assert.Equal(t, name, batch.Failed[0].Name)
	_, _, err := svc.Open(context.Background(), BucketDocuments, "42/lst-1/"+name, "")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
