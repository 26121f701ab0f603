package offer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"freightmarket/internal/domain/listing"
	"freightmarket/internal/domain/notification"
	"freightmarket/internal/domain/profile"
)

// Store is the persistence the offer service needs.
type Store interface {
	Create(ctx context.Context, o *Offer) error
	GetByID(ctx context.Context, id string) (*Offer, error)
	ListByUser(ctx context.Context, userID int64) ([]*Offer, error)
	ListByListings(ctx context.Context, listingIDs []string) ([]*Offer, error)
	UpdateIfCurrent(ctx context.Context, o *Offer, columns []string, version int, status Status) error
	Delete(ctx context.Context, id string) error
	HasAccepted(ctx context.Context, listingID string) (bool, error)
	ListExpirable(ctx context.Context, now time.Time) ([]*Offer, error)
	CountSentByStatus(ctx context.Context, userID int64) (map[Status]int, error)
	CountReceivedByStatus(ctx context.Context, ownerID int64) (map[Status]int, error)
}

// Listings is the slice of the listing service offers depend on.
type Listings interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
	IDsOwnedBy(ctx context.Context, userID int64) ([]string, error)
	Summaries(ctx context.Context, ids []string) (map[string]*listing.Summary, error)
}

// Carriers resolves the profile block shown next to received offers.
type Carriers interface {
	CarrierSummaries(ctx context.Context, userIDs []int64) (map[int64]*profile.CarrierSummary, error)
}

type Service struct {
	repo     Store
	listings Listings
	carriers Carriers
	events   notification.Publisher
	now      func() time.Time
}

func NewService(repo Store, listings Listings, carriers Carriers, events notification.Publisher) *Service {
	if events == nil {
		events = notification.Nop{}
	}
	return &Service{
		repo:     repo,
		listings: listings,
		carriers: carriers,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetSentOffers returns the offers userID made, newest first.
func (s *Service) GetSentOffers(ctx context.Context, userID int64) ([]*Offer, error) {
	offers, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sent offers: %w", err)
	}
	return s.attachListings(ctx, offers), nil
}

// GetReceivedOffers returns offers made on any listing userID owns.
func (s *Service) GetReceivedOffers(ctx context.Context, userID int64) ([]*Offer, error) {
	ids, err := s.listings.IDsOwnedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned listings: %w", err)
	}
	if len(ids) == 0 {
		return []*Offer{}, nil
	}

	offers, err := s.repo.ListByListings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list received offers: %w", err)
	}
	return s.attachListings(ctx, offers), nil
}

// CreateOffer stores a pending offer from actorID on an active cargo listing.
func (s *Service) CreateOffer(ctx context.Context, actorID int64, req *CreateOfferRequest) (*Offer, error) {
	now := s.now()
	o, errs := req.Offer(actorID, now)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	l, err := s.listing(ctx, o.ListingID)
	if err != nil {
		return nil, err
	}
	switch {
	case l.ListingType == listing.TypeTransportService:
		return nil, ErrTransportServiceListing
	case l.IsOwnedBy(actorID):
		return nil, ErrOwnListing
	case l.Status != listing.StatusActive:
		return nil, ErrListingNotActive
	}

	o.Status = StatusPending
	o.Version = 1
	o.CreatedAt = now
	o.UpdatedAt = now
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	o.Listing = l.Summary()

	s.publish(ctx, notification.TypeOfferCreated, o, actorID, l.UserID)
	return o, nil
}

// GetOffer returns one offer to its creator or to the listing owner.
func (s *Service) GetOffer(ctx context.Context, id string, actorID int64) (*Offer, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	l, err := s.listings.Get(ctx, o.ListingID)
	if err != nil && !errors.Is(err, listing.ErrListingNotFound) {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if o.UserID != actorID && (l == nil || !l.IsOwnedBy(actorID)) {
		return nil, ErrForbidden
	}

	if l != nil {
		o.Listing = l.Summary()
	}
	s.attachCarriers(ctx, []*Offer{o})
	return o, nil
}

// UpdateOffer edits the terms of a pending offer. Only its creator may.
func (s *Service) UpdateOffer(ctx context.Context, id string, actorID int64, req *UpdateOfferRequest) (*Offer, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != actorID {
		return nil, ErrForbidden
	}
	if o.Status != StatusPending {
		return nil, ErrOfferNotPending
	}
	if req.Version != nil && *req.Version != o.Version {
		return nil, ErrStaleOffer
	}

	now := s.now()
	cols, errs := req.apply(o, now)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return o, nil
	}

	version := o.Version
	o.Version++
	o.UpdatedAt = now
	cols = append(cols, "version", "updated_at")
	if err := s.repo.UpdateIfCurrent(ctx, o, cols, version, StatusPending); err != nil {
		if errors.Is(err, ErrStaleOffer) {
			return nil, err
		}
		return nil, fmt.Errorf("update offer: %w", err)
	}

	owner := s.attachListings(ctx, []*Offer{o})[0].listingOwner()
	s.publish(ctx, notification.TypeOfferUpdated, o, actorID, owner)
	return o, nil
}

func (s *Service) AcceptOffer(ctx context.Context, id string, actorID int64, version *int) (*Offer, error) {
	return s.TransitionOffer(ctx, id, actorID, ActionAccept, version)
}

func (s *Service) RejectOffer(ctx context.Context, id string, actorID int64, version *int) (*Offer, error) {
	return s.TransitionOffer(ctx, id, actorID, ActionReject, version)
}

func (s *Service) WithdrawOffer(ctx context.Context, id string, actorID int64, version *int) (*Offer, error) {
	return s.TransitionOffer(ctx, id, actorID, ActionWithdraw, version)
}

// TransitionOffer applies action for actorID. The listing owner accepts or
// rejects, the creator withdraws. version, when given, must match the row.
func (s *Service) TransitionOffer(ctx context.Context, id string, actorID int64, action Action, version *int) (*Offer, error) {
	st, ok := steps[action]
	if !ok || st.by == roleSystem {
		return nil, ErrUnknownAction
	}

	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var l *listing.Listing
	switch st.by {
	case roleListingOwner:
		l, err = s.listing(ctx, o.ListingID)
		if err != nil {
			return nil, err
		}
		if !l.IsOwnedBy(actorID) {
			return nil, ErrForbidden
		}
		if st.to == StatusAccepted {
			if err := s.checkAcceptable(ctx, l); err != nil {
				return nil, err
			}
		}
	case roleCreator:
		if o.UserID != actorID {
			return nil, ErrForbidden
		}
	}

	if version != nil && *version != o.Version {
		return nil, ErrStaleOffer
	}
	if err := s.apply(ctx, o, st.to); err != nil {
		return nil, err
	}

	if l != nil {
		o.Listing = l.Summary()
	} else {
		s.attachListings(ctx, []*Offer{o})
	}
	s.publish(ctx, eventFor(st.to), o, actorID, o.UserID, o.listingOwner())
	return o, nil
}

// DeleteOffer removes an offer. Only its creator may.
func (s *Service) DeleteOffer(ctx context.Context, id string, actorID int64) error {
	o, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if o.UserID != actorID {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return err
		}
		return fmt.Errorf("delete offer: %w", err)
	}
	return nil
}

// GetOffersForListing returns the offers on one listing with carrier
// profiles. Only the listing owner may list them.
func (s *Service) GetOffersForListing(ctx context.Context, listingID string, actorID int64) ([]*Offer, error) {
	l, err := s.listing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(actorID) {
		return nil, ErrForbidden
	}

	offers, err := s.repo.ListByListings(ctx, []string{listingID})
	if err != nil {
		return nil, fmt.Errorf("list listing offers: %w", err)
	}
	if offers == nil {
		offers = []*Offer{}
	}
	summary := l.Summary()
	for _, o := range offers {
		o.Listing = summary
	}
	s.attachCarriers(ctx, offers)
	return offers, nil
}

// GetOfferStats counts sent and received offers per status bucket.
func (s *Service) GetOfferStats(ctx context.Context, userID int64) (*Stats, error) {
	sent, err := s.repo.CountSentByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count sent offers: %w", err)
	}
	received, err := s.repo.CountReceivedByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count received offers: %w", err)
	}
	return &Stats{Sent: bucketFrom(sent), Received: bucketFrom(received)}, nil
}

// ExpireOffers moves pending offers past their deadline to expired and
// returns how many changed. Offers changed concurrently are skipped.
func (s *Service) ExpireOffers(ctx context.Context, now time.Time) (int, error) {
	offers, err := s.repo.ListExpirable(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expirable offers: %w", err)
	}
	s.attachListings(ctx, offers)

	expired := 0
	for _, o := range offers {
		err := s.apply(ctx, o, StatusExpired)
		if errors.Is(err, ErrStaleOffer) {
			log.Printf("offer_expire_skipped offer_id=%s reason=stale", o.ID)
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
		s.publish(ctx, notification.TypeOfferExpired, o, 0, o.UserID, o.listingOwner())
	}
	return expired, nil
}

// checkAcceptable allows one accepted offer per listing, and only while the
// listing is active.
func (s *Service) checkAcceptable(ctx context.Context, l *listing.Listing) error {
	if l.Status != listing.StatusActive {
		return ErrListingNotActive
	}
	taken, err := s.repo.HasAccepted(ctx, l.ID)
	if err != nil {
		return fmt.Errorf("check accepted offers: %w", err)
	}
	if taken {
		return ErrListingAlreadyAwarded
	}
	return nil
}

// apply moves o to status to with a compare-and-swap on version and status.
func (s *Service) apply(ctx context.Context, o *Offer, to Status) error {
	if err := Transition(o.Status, to); err != nil {
		return err
	}

	from, version := o.Status, o.Version
	o.Status = to
	o.Version++
	o.UpdatedAt = s.now()

	err := s.repo.UpdateIfCurrent(ctx, o, []string{"status", "version", "updated_at"}, version, from)
	if err != nil {
		o.Status, o.Version = from, version
		if errors.Is(err, ErrStaleOffer) {
			return err
		}
		return fmt.Errorf("update offer status: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*Offer, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if o == nil {
		return nil, ErrOfferNotFound
	}
	return o, nil
}

func (s *Service) listing(ctx context.Context, id string) (*listing.Listing, error) {
	l, err := s.listings.Get(ctx, id)
	if errors.Is(err, listing.ErrListingNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// attachListings fills Listing from a single summary lookup. A failed
// lookup leaves summaries empty.
func (s *Service) attachListings(ctx context.Context, offers []*Offer) []*Offer {
	if offers == nil {
		offers = []*Offer{}
	}
	if len(offers) == 0 {
		return offers
	}

	ids := make([]string, 0, len(offers))
	seen := make(map[string]bool, len(offers))
	for _, o := range offers {
		if !seen[o.ListingID] {
			seen[o.ListingID] = true
			ids = append(ids, o.ListingID)
		}
	}
	summaries, err := s.listings.Summaries(ctx, ids)
	if err != nil {
		log.Printf("offer_listing_lookup_failed count=%d error=%v", len(ids), err)
		return offers
	}
	for _, o := range offers {
		o.Listing = summaries[o.ListingID]
	}
	return offers
}

func (s *Service) attachCarriers(ctx context.Context, offers []*Offer) {
	if len(offers) == 0 || s.carriers == nil {
		return
	}
	ids := make([]int64, 0, len(offers))
	for _, o := range offers {
		ids = append(ids, o.UserID)
	}
	carriers, err := s.carriers.CarrierSummaries(ctx, ids)
	if err != nil {
		log.Printf("offer_carrier_lookup_failed count=%d error=%v", len(ids), err)
		return
	}
	for _, o := range offers {
		o.Carrier = carriers[o.UserID]
	}
}

// publish notifies every party except the actor. Failures are logged only.
func (s *Service) publish(ctx context.Context, typ notification.Type, o *Offer, actorID int64, recipients ...int64) {
	sent := make(map[int64]bool, len(recipients))
	for _, userID := range recipients {
		if userID == 0 || userID == actorID || sent[userID] {
			continue
		}
		sent[userID] = true

		err := s.events.Publish(ctx, notification.Event{
			Type:       typ,
			UserID:     userID,
			ActorID:    actorID,
			OfferID:    o.ID,
			ListingID:  o.ListingID,
			Status:     string(o.Status),
			OccurredAt: o.UpdatedAt,
		})
		if err != nil {
			log.Printf("offer_event_publish_failed type=%s offer_id=%s user_id=%d error=%v", typ, o.ID, userID, err)
		}
	}
}

func eventFor(status Status) notification.Type {
	switch status {
	case StatusAccepted:
		return notification.TypeOfferAccepted
	case StatusRejected:
		return notification.TypeOfferRejected
	case StatusWithdrawn:
		return notification.TypeOfferWithdrawn
	case StatusExpired:
		return notification.TypeOfferExpired
	}
	return notification.TypeOfferUpdated
}
