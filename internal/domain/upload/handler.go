package upload

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"freightmarket/internal/domain/listing"
	"freightmarket/internal/pkg/response"
	"freightmarket/internal/storage"
)

const maxMultipartMemory = 32 << 20

const msgAttachFailed = "Dosya ilana eklenemedi"

// Attachments records uploaded files on the listing they belong to.
type Attachments interface {
	AddAttachment(ctx context.Context, id string, actorID int64, kind listing.AttachmentKind, url string) (*listing.Listing, error)
	RemoveAttachment(ctx context.Context, id string, actorID int64, kind listing.AttachmentKind, url string) (*listing.Listing, error)
}

// Handler handles HTTP requests for file uploads.
type Handler struct {
	service     *Service
	attachments Attachments
}

func NewHandler(service *Service, attachments Attachments) *Handler {
	return &Handler{service: service, attachments: attachments}
}

// UploadImage godoc
// @Summary Upload a listing image
// @Description Stores image number `index` of the listing, replacing the previous one.
// @Tags Uploads
// @Accept multipart/form-data
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param file formData file true "JPEG or PNG, max 5MB"
// @Param index formData int false "Image slot (default 0)"
// @Success 201 {object} map[string]interface{}
// @Failure 400,403,422 {object} map[string]interface{}
// @Router /listings/{id}/images [post]
func (h *Handler) UploadImage(c *gin.Context) {
	userID := c.GetInt64("user_id")
	listingID := c.Param("id")

	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "FILE_REQUIRED", "No file provided")
		return
	}
	index, err := strconv.Atoi(c.DefaultPostForm("index", "0"))
	if err != nil || index < 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_INDEX", "index must be a non-negative integer")
		return
	}

	res, err := h.service.UploadImage(c.Request.Context(), userID, fh, listingID, index)
	if err != nil {
		h.writeError(c, err)
		return
	}

	l, err := h.attachments.AddAttachment(c.Request.Context(), listingID, userID, listing.AttachmentImage, res.URL)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"file": res, "image_urls": l.ImageURLs})
}

// UploadDocuments godoc
// @Summary Upload listing documents
// @Description Uploads every `files` part; files that fail are listed under `failed`.
// @Tags Uploads
// @Accept multipart/form-data
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param files formData file true "PDF, Word, Excel, JPEG or PNG, max 10MB each"
// @Success 201 {object} map[string]interface{}
// @Failure 400,403 {object} map[string]interface{}
// @Router /listings/{id}/documents [post]
func (h *Handler) UploadDocuments(c *gin.Context) {
	userID := c.GetInt64("user_id")
	listingID := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "FILE_REQUIRED", "No files provided")
		return
	}
	files := append(form.File["files"], form.File["file"]...)
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, "FILE_REQUIRED", "No files provided")
		return
	}

	ctx := c.Request.Context()
	batch := h.service.UploadMultipleDocuments(ctx, userID, files, listingID)

	// A stored file that cannot be attached is removed and reported as failed.
	var urls any = []string{}
	attached := make([]*Result, 0, len(batch.Uploaded))
	for _, res := range batch.Uploaded {
		l, err := h.attachments.AddAttachment(ctx, listingID, userID, listing.AttachmentDocument, res.URL)
		if err != nil {
			log.Printf("document_attach_failed user_id=%d listing_id=%s path=%s error=%v", userID, listingID, res.Path, err)
			if rmErr := h.service.DeleteFile(ctx, userID, res.Path, false); rmErr != nil {
				log.Printf("document_cleanup_failed user_id=%d path=%s error=%v", userID, res.Path, rmErr)
			}
			batch.Failed = append(batch.Failed, Failure{Name: path.Base(res.Path), Error: msgAttachFailed})
			continue
		}
		attached = append(attached, res)
		urls = l.DocumentURLs
	}
	batch.Uploaded = attached

	status := http.StatusCreated
	if len(batch.Uploaded) == 0 {
		status = http.StatusUnprocessableEntity
	}
	response.Success(c, status, gin.H{"uploaded": batch.Uploaded, "failed": batch.Failed, "document_urls": urls})
}

type deleteRequest struct {
	Path      string `json:"path" binding:"required"`
	IsImage   bool   `json:"is_image"`
	ListingID string `json:"listing_id"`
}

// Delete godoc
// @Summary Delete one of my listing files
// @Description When listing_id is given the file URL is also removed from the listing.
// @Tags Uploads
// @Accept json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400,403,404 {object} map[string]interface{}
// @Router /uploads [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "path is required")
		return
	}

	if err := h.service.DeleteFile(c.Request.Context(), userID, req.Path, req.IsImage); err != nil {
		h.writeError(c, err)
		return
	}

	if req.ListingID != "" {
		kind, bucket := listing.AttachmentDocument, BucketDocuments
		if req.IsImage {
			kind, bucket = listing.AttachmentImage, BucketListings
		}
		clean, _ := storage.CleanPath(req.Path)
		if _, err := h.attachments.RemoveAttachment(c.Request.Context(), req.ListingID, userID, kind, h.service.URL(bucket, clean)); err != nil {
			h.writeError(c, err)
			return
		}
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// UploadVerification godoc
// @Summary Upload a verification document
// @Description Stored privately; the response carries a signed URL.
// @Tags Uploads
// @Accept multipart/form-data
// @Security BearerAuth
// @Param file formData file true "PDF, Word, Excel, JPEG or PNG, max 10MB"
// @Success 201 {object} map[string]interface{}
// @Router /uploads/verification [post]
func (h *Handler) UploadVerification(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "FILE_REQUIRED", "No file provided")
		return
	}

	res, err := h.service.UploadVerificationDocument(c.Request.Context(), c.GetInt64("user_id"), fh)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// SignedURL handles GET /api/v1/uploads/signed-url?path=
func (h *Handler) SignedURL(c *gin.Context) {
	res, err := h.service.SignedURL(c.Request.Context(), c.GetInt64("user_id"), c.Query("path"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Validate handles POST /api/v1/uploads/validate
// It runs the same checks as an upload without storing anything.
func (h *Handler) Validate(c *gin.Context) {
	fh, _ := c.FormFile("file")
	isImage := c.DefaultPostForm("is_image", "false") == "true"
	response.Success(c, http.StatusOK, ValidateFile(fh, isImage))
}

// Serve handles GET /api/v1/storage/:bucket/*path
func (h *Handler) Serve(c *gin.Context) {
	rc, obj, err := h.service.Open(c.Request.Context(), c.Param("bucket"), strings.TrimPrefix(c.Param("path"), "/"), c.Query("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, obj.Size, ct, rc, nil)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var fileErr *FileError
	switch {
	case errors.As(err, &fileErr):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_FILE", fileErr.Message)
	case errors.Is(err, ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrNotOwner), errors.Is(err, listing.ErrNotOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this file")
	case errors.Is(err, ErrInvalidToken):
		response.Error(c, http.StatusForbidden, "INVALID_FILE_TOKEN", "Invalid or expired file link")
	case errors.Is(err, ErrInvalidListingID), errors.Is(err, storage.ErrInvalidPath):
		response.Error(c, http.StatusBadRequest, "INVALID_PATH", err.Error())
	case errors.Is(err, storage.ErrObjectExists):
		response.Error(c, http.StatusConflict, "FILE_EXISTS", "A file with this name already exists")
	case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, ErrUnknownBucket):
		response.Error(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
	case errors.Is(err, listing.ErrListingNotFound):
		response.Error(c, http.StatusNotFound, "LISTING_NOT_FOUND", "Listing not found")
	default:
		log.Printf("upload_error method=%s path=%s user_id=%d error=%v", c.Request.Method, c.Request.URL.Path, c.GetInt64("user_id"), err)
		response.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Upload failed")
	}
}
