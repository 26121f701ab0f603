package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"freightmarket/internal/pkg/jwt"
	"freightmarket/internal/storage"
)

const (
	DefaultPublicBase   = "/api/v1/storage"
	defaultDocumentType = "document"
)

// ObjectSigner issues and checks tokens for private objects.
type ObjectSigner interface {
	GenerateObjectToken(bucket, path string, ttl time.Duration) (string, time.Time, error)
	ValidateObjectToken(token string) (*jwt.ObjectClaims, error)
}

// Service stores listing images, listing documents and private
// verification documents.
type Service struct {
	buckets    map[string]storage.Bucket
	signer     ObjectSigner
	publicBase string
	signedTTL  time.Duration
	now        func() time.Time
}

// NewService wires the three buckets from p. publicBase prefixes object
// URLs and defaults to DefaultPublicBase.
func NewService(p storage.Provider, signer ObjectSigner, publicBase string, signedTTL time.Duration) *Service {
	if publicBase == "" {
		publicBase = DefaultPublicBase
	}
	return &Service{
		buckets: map[string]storage.Bucket{
			BucketListings:     p.Bucket(BucketListings),
			BucketDocuments:    p.Bucket(BucketDocuments),
			BucketVerification: p.Bucket(BucketVerification),
		},
		signer:     signer,
		publicBase: strings.TrimRight(publicBase, "/"),
		signedTTL:  signedTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// UploadImage stores listing image number index, replacing any earlier
// image at that index.
func (s *Service) UploadImage(ctx context.Context, userID int64, fh *multipart.FileHeader, listingID string, index int) (*Result, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	ct, err := checkFile(fh, true)
	if err != nil {
		return nil, err
	}
	if !validSegment(listingID) || index < 0 {
		return nil, ErrInvalidListingID
	}

	p := fmt.Sprintf("%d/%s/image-%d%s", userID, listingID, index, extension(ct))
	if err := s.put(ctx, BucketListings, p, fh, ct, true); err != nil {
		return nil, err
	}
	return &Result{Bucket: BucketListings, Path: p, URL: s.url(BucketListings, p)}, nil
}

// UploadDocument stores a new listing document. Existing objects are
// never overwritten.
func (s *Service) UploadDocument(ctx context.Context, userID int64, fh *multipart.FileHeader, listingID, documentType string) (*Result, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	ct, err := checkFile(fh, false)
	if err != nil {
		return nil, err
	}
	if !validSegment(listingID) {
		return nil, ErrInvalidListingID
	}

	docType := sanitizeName(documentType)
	if strings.TrimSpace(documentType) == "" {
		docType = defaultDocumentType
	}
	p := fmt.Sprintf("%d/%s/%s-%d-%s%s",
		userID, listingID, docType, s.now().UnixMilli(), sanitizeName(fh.Filename), extension(ct))
	if err := s.put(ctx, BucketDocuments, p, fh, ct, false); err != nil {
		return nil, err
	}
	return &Result{Bucket: BucketDocuments, Path: p, URL: s.url(BucketDocuments, p)}, nil
}

// UploadVerificationDocument stores an identity or company document in the
// private bucket and returns a signed URL for it.
func (s *Service) UploadVerificationDocument(ctx context.Context, userID int64, fh *multipart.FileHeader) (*Result, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	ct, err := checkFile(fh, false)
	if err != nil {
		return nil, err
	}

	p := fmt.Sprintf("%d/verification/%d-%s%s", userID, s.now().UnixMilli(), sanitizeName(fh.Filename), extension(ct))
	if err := s.put(ctx, BucketVerification, p, fh, ct, false); err != nil {
		return nil, err
	}
	return s.sign(p)
}

// UploadMultipleDocuments uploads files one after another. A failing file
// is logged and reported in Failed; the rest still upload.
func (s *Service) UploadMultipleDocuments(ctx context.Context, userID int64, files []*multipart.FileHeader, listingID string) *BatchResult {
	out := &BatchResult{Uploaded: []*Result{}, Failed: []Failure{}}
	for _, fh := range files {
		name := ""
		if fh != nil {
			name = fh.Filename
		}
		res, err := s.UploadDocument(ctx, userID, fh, listingID, defaultDocumentType)
		if err != nil {
			log.Printf("document_upload_failed user_id=%d listing_id=%s file=%q error=%v", userID, listingID, name, err)
			out.Failed = append(out.Failed, Failure{Name: name, Error: err.Error()})
			continue
		}
		out.Uploaded = append(out.Uploaded, res)
	}
	return out
}

// DeleteFile removes one of userID's listing images or documents.
func (s *Service) DeleteFile(ctx context.Context, userID int64, path string, isImage bool) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	clean, err := s.owned(userID, path)
	if err != nil {
		return err
	}

	bucket := BucketDocuments
	if isImage {
		bucket = BucketListings
	}
	return s.buckets[bucket].Remove(ctx, clean)
}

// SignedURL returns a time-limited URL for one of userID's private objects.
func (s *Service) SignedURL(ctx context.Context, userID int64, path string) (*Result, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	clean, err := s.owned(userID, path)
	if err != nil {
		return nil, err
	}

	ok, err := s.buckets[BucketVerification].Exists(ctx, clean)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return s.sign(clean)
}

// Open reads an object for download. The private bucket only opens with a
// token issued for exactly that path.
func (s *Service) Open(ctx context.Context, bucket, path, token string) (io.ReadCloser, *storage.Object, error) {
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, nil, ErrUnknownBucket
	}
	clean, err := storage.CleanPath(path)
	if err != nil {
		return nil, nil, err
	}

	if bucket == BucketVerification {
		if token == "" || s.signer == nil {
			return nil, nil, ErrInvalidToken
		}
		claims, err := s.signer.ValidateObjectToken(token)
		if err != nil || claims.Bucket != bucket || claims.Path != clean {
			return nil, nil, ErrInvalidToken
		}
	}
	return b.Open(ctx, clean)
}

// URL returns the public URL of an object.
func (s *Service) URL(bucket, path string) string {
	return s.url(bucket, path)
}

// PathFromURL recovers the object path from a URL built by this service.
func (s *Service) PathFromURL(bucket, rawURL string) (string, bool) {
	prefix := s.publicBase + "/" + bucket + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	p, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil {
		return "", false
	}
	return p, true
}

func (s *Service) put(ctx context.Context, bucket, p string, fh *multipart.FileHeader, contentType string, upsert bool) error {
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if err := s.buckets[bucket].Put(ctx, p, f, contentType, upsert); err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			return err
		}
		return fmt.Errorf("store %s/%s: %w", bucket, p, err)
	}
	return nil
}

func (s *Service) owned(userID int64, path string) (string, error) {
	clean, err := storage.CleanPath(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(clean, fmt.Sprintf("%d/", userID)) {
		return "", ErrNotOwner
	}
	return clean, nil
}

func (s *Service) sign(p string) (*Result, error) {
	token, expires, err := s.signer.GenerateObjectToken(BucketVerification, p, s.signedTTL)
	if err != nil {
		return nil, fmt.Errorf("sign object url: %w", err)
	}
	return &Result{
		Bucket:    BucketVerification,
		Path:      p,
		URL:       s.url(BucketVerification, p) + "?token=" + url.QueryEscape(token),
		ExpiresAt: &expires,
	}, nil
}

func (s *Service) url(bucket, p string) string {
	return s.publicBase + "/" + bucket + "/" + p
}

// checkFile returns the sniffed content type of an acceptable file.
func checkFile(fh *multipart.FileHeader, isImage bool) (string, error) {
	ct, v := inspect(fh, isImage)
	if !v.Valid {
		return "", &FileError{Message: v.Error}
	}
	return ct, nil
}
