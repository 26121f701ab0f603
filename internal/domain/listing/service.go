package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"gorm.io/datatypes"

	"freightmarket/internal/domain/notification"
	"freightmarket/internal/domain/profile"
	"freightmarket/internal/pkg/validator"
)

const (
	defaultSearchLimit    = 20
	listingNumberAttempts = 3
)

// Store is the persistence the listing service needs.
type Store interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	ListByUser(ctx context.Context, userID int64) ([]*Listing, error)
	ListActive(ctx context.Context, limit int) ([]*Listing, error)
	Search(ctx context.Context, f SearchFilters) ([]*Listing, error)
	Update(ctx context.Context, l *Listing, columns []string) error
	Delete(ctx context.Context, id string) error
	ListIDsByUser(ctx context.Context, userID int64) ([]string, error)
	GetSummaries(ctx context.Context, ids []string) (map[string]*Summary, error)
	NormalizeMetadata(ctx context.Context, now time.Time, fix func(*Listing) bool) (int, error)
	Expire(ctx context.Context, now time.Time) ([]*Summary, error)
}

// ProfileLookup resolves owner summaries in one batch.
type ProfileLookup interface {
	Summaries(ctx context.Context, userIDs []int64) (map[int64]*profile.Summary, error)
}

// Service handles listing business logic
type Service struct {
	repo      Store
	profiles  ProfileLookup
	events    notification.Publisher
	now       func() time.Time
	newNumber func(time.Time) string
}

// NewService creates listing service
func NewService(repo Store, profiles ProfileLookup) *Service {
	return &Service{
		repo:      repo,
		profiles:  profiles,
		events:    notification.Nop{},
		now:       func() time.Time { return time.Now().UTC() },
		newNumber: GenerateListingNumber,
	}
}

// CreateListing validates the type-specific draft and stores it for ownerID.
// A generated listing number that collides is regenerated; a caller-supplied
// one is not.
func (s *Service) CreateListing(ctx context.Context, ownerID int64, req *CreateListingRequest) (*Listing, error) {
	draft, errs := req.Draft()
	if draft != nil {
		c := draft.base()
		if c.Status != "" && c.Status != StatusActive && c.Status != StatusDraft {
			errs.Add("status", "oneof")
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	c := draft.base()
	if c.Status == "" {
		c.Status = StatusActive
	}
	if c.Priority == "" {
		c.Priority = PriorityNormal
	}
	if c.TransportMode == "" {
		c.TransportMode = ModeRoad
	}

	now := s.now()
	row := draft.Row(ownerID)
	row.CreatedAt = now
	row.UpdatedAt = now

	attempts := listingNumberAttempts
	if row.ListingNumber != "" {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if c.ListingNumber == "" {
			row.ListingNumber = s.newNumber(now)
			row.ID = ""
		}
		err = s.repo.Create(ctx, row)
		if !errors.Is(err, ErrDuplicateListingNumber) {
			break
		}
		log.Printf("listing_number_collision number=%s attempt=%d", row.ListingNumber, i+1)
	}
	if err != nil {
		if errors.Is(err, ErrDuplicateListingNumber) {
			return nil, err
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.attachOwners(ctx, []*Listing{row})
	return row, nil
}

// GetUserListings returns a member's listings newest first.
func (s *Service) GetUserListings(ctx context.Context, userID int64) ([]*Listing, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user listings: %w", err)
	}
	return s.attachOwners(ctx, out), nil
}

// GetActiveListings returns active listings newest first; limit <= 0 means all.
func (s *Service) GetActiveListings(ctx context.Context, limit int) ([]*Listing, error) {
	out, err := s.repo.ListActive(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	return s.attachOwners(ctx, out), nil
}

func (s *Service) GetListingByID(ctx context.Context, id string) (*Listing, error) {
	l, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachOwners(ctx, []*Listing{l})
	return l, nil
}

// UpdateListing applies a partial update by the owner.
func (s *Service) UpdateListing(ctx context.Context, id string, actorID int64, req *UpdateListingRequest) (*Listing, error) {
	l, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	errs := validator.Errors{}
	cols := req.apply(l, errs)
	if req.Status != nil && *req.Status != l.Status {
		if !CanTransition(l.Status, *req.Status) {
			return nil, ErrInvalidStatusTransition
		}
		l.Status = *req.Status
		cols = append(cols, "status")
	}

	variant := l.Variant()
	if variant == nil {
		return nil, ErrUnknownListingType
	}
	for field, rule := range variant.Validate() {
		errs.Add(field, rule)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if len(cols) == 0 {
		s.attachOwners(ctx, []*Listing{l})
		return l, nil
	}
	if err := s.save(ctx, l, cols); err != nil {
		return nil, err
	}
	s.attachOwners(ctx, []*Listing{l})
	return l, nil
}

// UpdateStatus moves a listing to status when the transition is allowed.
func (s *Service) UpdateStatus(ctx context.Context, id string, actorID int64, status Status) (*Listing, error) {
	l, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(l.Status, status) {
		return nil, ErrInvalidStatusTransition
	}

	l.Status = status
	if err := s.save(ctx, l, []string{"status"}); err != nil {
		return nil, err
	}
	s.attachOwners(ctx, []*Listing{l})
	return l, nil
}

// DeleteListing removes the listing and its offers.
func (s *Service) DeleteListing(ctx context.Context, id string, actorID int64) error {
	if _, err := s.getOwned(ctx, id, actorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

func (s *Service) SearchListings(ctx context.Context, f SearchFilters) ([]*Listing, error) {
	if f.Limit <= 0 {
		f.Limit = defaultSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	out, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return s.attachOwners(ctx, out), nil
}

// AddAttachment appends an uploaded file URL to the listing's images or
// documents. Adding a URL that is already present is a no-op.
func (s *Service) AddAttachment(ctx context.Context, id string, actorID int64, kind AttachmentKind, url string) (*Listing, error) {
	l, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	list, col, err := attachmentColumn(l, kind)
	if err != nil {
		return nil, err
	}
	if slices.Contains(*list, url) {
		return l, nil
	}

	*list = append(*list, url)
	if err := s.save(ctx, l, []string{col}); err != nil {
		return nil, err
	}
	return l, nil
}

// RemoveAttachment drops a file URL from the listing.
func (s *Service) RemoveAttachment(ctx context.Context, id string, actorID int64, kind AttachmentKind, url string) (*Listing, error) {
	l, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	list, col, err := attachmentColumn(l, kind)
	if err != nil {
		return nil, err
	}

	i := slices.Index(*list, url)
	if i < 0 {
		return l, nil
	}
	*list = slices.Delete(*list, i, i+1)
	if err := s.save(ctx, l, []string{col}); err != nil {
		return nil, err
	}
	return l, nil
}

// NormalizeMetadata moves required_documents still nested under
// metadata.transport_details into the top-level column and returns how many
// rows changed.
func (s *Service) NormalizeMetadata(ctx context.Context) (int, error) {
	n, err := s.repo.NormalizeMetadata(ctx, s.now(), normalizeRow)
	if err != nil {
		return n, fmt.Errorf("normalize listing metadata: %w", err)
	}
	return n, nil
}

// WithEvents sets where listing lifecycle events go.
func (s *Service) WithEvents(p notification.Publisher) *Service {
	if p != nil {
		s.events = p
	}
	return s
}

// ExpireListings marks cargo listings whose delivery date is before now and
// tells each owner.
func (s *Service) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	expired, err := s.repo.Expire(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire listings: %w", err)
	}

	for _, l := range expired {
		err := s.events.Publish(ctx, notification.Event{
			Type:       notification.TypeListingExpired,
			UserID:     l.UserID,
			ListingID:  l.ID,
			Status:     string(StatusExpired),
			OccurredAt: now,
		})
		if err != nil {
			log.Printf("listing_event_publish_failed type=%s listing_id=%s user_id=%d error=%v",
				notification.TypeListingExpired, l.ID, l.UserID, err)
		}
	}
	return int64(len(expired)), nil
}

// OwnerOf returns the owner of a listing, or ErrListingNotFound.
func (s *Service) OwnerOf(ctx context.Context, id string) (int64, error) {
	l, err := s.get(ctx, id)
	if err != nil {
		return 0, err
	}
	return l.UserID, nil
}

// Get returns the bare row without owner enrichment.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	return s.get(ctx, id)
}

func (s *Service) IDsOwnedBy(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.ListIDsByUser(ctx, userID)
}

func (s *Service) Summaries(ctx context.Context, ids []string) (map[string]*Summary, error) {
	return s.repo.GetSummaries(ctx, ids)
}

func (s *Service) get(ctx context.Context, id string) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if l == nil {
		return nil, ErrListingNotFound
	}
	return l, nil
}

func (s *Service) getOwned(ctx context.Context, id string, actorID int64) (*Listing, error) {
	l, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(actorID) {
		return nil, ErrNotOwner
	}
	return l, nil
}

func (s *Service) save(ctx context.Context, l *Listing, cols []string) error {
	l.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, l, append(cols, "updated_at")); err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// attachOwners fills Owner on every listing from a single profile lookup.
// A failed lookup leaves owners empty.
func (s *Service) attachOwners(ctx context.Context, listings []*Listing) []*Listing {
	if listings == nil {
		listings = []*Listing{}
	}
	if len(listings) == 0 || s.profiles == nil {
		return listings
	}

	ids := make([]int64, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.UserID)
	}
	owners, err := s.profiles.Summaries(ctx, ids)
	if err != nil {
		log.Printf("listing_owner_lookup_failed count=%d error=%v", len(ids), err)
		return listings
	}
	for _, l := range listings {
		l.Owner = owners[l.UserID]
	}
	return listings
}

func attachmentColumn(l *Listing, kind AttachmentKind) (*datatypes.JSONSlice[string], string, error) {
	switch kind {
	case AttachmentImage:
		return &l.ImageURLs, "image_urls", nil
	case AttachmentDocument:
		return &l.DocumentURLs, "document_urls", nil
	}
	return nil, "", ErrInvalidAttachment
}

// normalizeRow reports whether l had nested required_documents to move.
func normalizeRow(l *Listing) bool {
	meta := l.Metadata.Data()
	if meta.TransportDetails == nil || len(meta.TransportDetails.LegacyRequiredDocuments) == 0 {
		return false
	}

	l.RequiredDocuments = datatypes.JSONSlice[string](
		mergeDocuments(l.RequiredDocuments, meta.TransportDetails.LegacyRequiredDocuments),
	)
	details := *meta.TransportDetails
	details.LegacyRequiredDocuments = nil
	meta.TransportDetails = &details
	l.Metadata = datatypes.NewJSONType(meta)
	return true
}
