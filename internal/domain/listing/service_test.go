package listing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"freightmarket/internal/database/dbtest"
	"freightmarket/internal/domain/notification"
	"freightmarket/internal/domain/profile"
	"freightmarket/internal/pkg/validator"
)

type offerRow struct {
	ID        string `gorm:"primaryKey"`
	ListingID string `gorm:"index"`
}

func (offerRow) TableName() string { return "offers" }

type fakeProfiles struct {
	calls   int
	lastIDs []int64
	err     error
}

func (f *fakeProfiles) Summaries(_ context.Context, ids []int64) (map[int64]*profile.Summary, error) {
	f.calls++
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]*profile.Summary, len(ids))
	for _, id := range ids {
		out[id] = &profile.Summary{UserID: id, FullName: fmt.Sprintf("user-%d", id)}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeProfiles) {
	t.Helper()
	db := dbtest.Open(t, &Listing{}, &offerRow{})
	profiles := &fakeProfiles{}
	svc := NewService(NewRepository(db), profiles)

	clock := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, db, profiles
}

func TestCreateListing_RoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateListing(ctx, 11, validLoadRequest())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Regexp(t, `^NK\d{10}$`, created.ListingNumber)
	assert.Equal(t, StatusActive, created.Status)
	assert.Equal(t, PriorityNormal, created.Priority)
	assert.Equal(t, ModeRoad, created.TransportMode)
	require.NotNil(t, created.Owner)
	assert.Equal(t, int64(11), created.Owner.UserID)

	got, err := svc.GetListingByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Origin, got.Origin)
	assert.Equal(t, created.Destination, got.Destination)
	assert.Equal(t, created.ListingNumber, got.ListingNumber)
	assert.Equal(t, TypeLoadListing, got.ListingType)
	assert.True(t, got.PriceAmount.Valid)
	assert.True(t, decimal.NewFromInt(15000).Equal(got.PriceAmount.Decimal))
	assert.True(t, created.LoadingDate.Equal(*got.LoadingDate))
	assert.True(t, created.DeliveryDate.Equal(*got.DeliveryDate))
	assert.Equal(t, "user-11", got.Owner.FullName)
}

func TestCreateListing_ValidationError(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validLoadRequest()
	req.Origin = ""
	_, err := svc.CreateListing(context.Background(), 1, req)

	var verrs validator.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "required", verrs["origin"])
}

func TestCreateListing_RejectsTerminalStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validLoadRequest()
	req.Status = StatusCompleted
	_, err := svc.CreateListing(context.Background(), 1, req)

	var verrs validator.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "oneof", verrs["status"])
}

func TestCreateListing_RetriesGeneratedNumberCollision(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	numbers := []string{"NK2610010001", "NK2610010001", "NK2610010002"}
	svc.newNumber = func(time.Time) string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}

	first, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)
	second, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	assert.Equal(t, "NK2610010001", first.ListingNumber)
	assert.Equal(t, "NK2610010002", second.ListingNumber)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateListing_SuppliedNumberConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := validLoadRequest()
	req.ListingNumber = "NK2610019999"
	_, err := svc.CreateListing(ctx, 1, req)
	require.NoError(t, err)

	_, err = svc.CreateListing(ctx, 1, req)
	assert.ErrorIs(t, err, ErrDuplicateListingNumber)
}

func TestGetUserListings_NewestFirstWithOneProfileLookup(t *testing.T) {
	svc, _, profiles := newTestService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		l, err := svc.CreateListing(ctx, 5, validLoadRequest())
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}
	_, err := svc.CreateListing(ctx, 6, validLoadRequest())
	require.NoError(t, err)

	profiles.calls = 0
	out, err := svc.GetUserListings(ctx, 5)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, ids[2], out[0].ID)
	assert.Equal(t, ids[0], out[2].ID)
	assert.Equal(t, 1, profiles.calls)
	assert.Equal(t, []int64{5, 5, 5}, profiles.lastIDs)
	for _, l := range out {
		require.NotNil(t, l.Owner)
		assert.Equal(t, int64(5), l.Owner.UserID)
	}
}

func TestGetUserListings_EmptyIsNotNil(t *testing.T) {
	svc, _, profiles := newTestService(t)

	out, err := svc.GetUserListings(context.Background(), 404)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Zero(t, profiles.calls)
}

func TestGetListingByID_ProfileFailureStillReturnsListing(t *testing.T) {
	svc, _, profiles := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateListing(ctx, 2, validLoadRequest())
	require.NoError(t, err)

	profiles.err = errors.New("profiles down")
	got, err := svc.GetListingByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Owner)
}

func TestGetListingByID_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetListingByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestUpdateListing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	title := "Güncel başlık"
	priority := PriorityUrgent
	updated, err := svc.UpdateListing(ctx, l.ID, 1, &UpdateListingRequest{Title: &title, Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.True(t, updated.UpdatedAt.After(l.UpdatedAt))

	got, err := svc.GetListingByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, PriorityUrgent, got.Priority)
	assert.Equal(t, l.Origin, got.Origin)
}

func TestUpdateListing_Rules(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	title := "x"
	_, err = svc.UpdateListing(ctx, l.ID, 2, &UpdateListingRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)

	early := "2026-10-15"
	_, err = svc.UpdateListing(ctx, l.ID, 1, &UpdateListingRequest{DeliveryDate: &early})
	var verrs validator.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "after_loading_date", verrs["delivery_date"])

	draft := StatusDraft
	_, err = svc.UpdateListing(ctx, l.ID, 1, &UpdateListingRequest{Status: &draft})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdateStatus_ToggleAndTerminal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	paused, err := svc.UpdateStatus(ctx, l.ID, 1, StatusPaused)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, paused.Status)

	_, err = svc.UpdateStatus(ctx, l.ID, 1, StatusCompleted)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, l.ID, 1, StatusActive)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestDeleteListing_RemovesOffers(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)
	other, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)
	require.NoError(t, db.Create(&[]offerRow{
		{ID: "o1", ListingID: l.ID},
		{ID: "o2", ListingID: l.ID},
		{ID: "o3", ListingID: other.ID},
	}).Error)

	assert.ErrorIs(t, svc.DeleteListing(ctx, l.ID, 2), ErrNotOwner)
	require.NoError(t, svc.DeleteListing(ctx, l.ID, 1))

	_, err = svc.GetListingByID(ctx, l.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)

	var remaining int64
	require.NoError(t, db.Model(&offerRow{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestSearchListings_ConjunctiveFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mk := func(title, origin, dest string, price int64, priority Priority) *Listing {
		req := validLoadRequest()
		req.Title = title
		req.Origin = origin
		req.Destination = dest
		p := decimal.NewFromInt(price)
		req.PriceAmount = &p
		req.Priority = priority
		l, err := svc.CreateListing(ctx, 1, req)
		require.NoError(t, err)
		return l
	}

	match := mk("Soğuk zincir GIDA", "Izmir Alsancak", "Ankara", 20000, PriorityHigh)
	mk("Soğuk zincir gıda", "Bursa", "Ankara", 20000, PriorityHigh)
	mk("Soğuk zincir gıda", "Izmir", "Ankara", 5000, PriorityHigh)
	mk("Kuru yük", "Izmir", "Ankara", 20000, PriorityHigh)
	paused := mk("Soğuk zincir gıda", "Izmir", "Ankara", 20000, PriorityHigh)
	_, err := svc.UpdateStatus(ctx, paused.ID, 1, StatusPaused)
	require.NoError(t, err)

	minPrice := 10000.0
	out, err := svc.SearchListings(ctx, SearchFilters{
		Query:       "zincir",
		Origin:      "izmir",
		Destination: "ANK",
		MinPrice:    &minPrice,
		Priority:    PriorityHigh,
		ListingType: TypeLoadListing,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, match.ID, out[0].ID)
}

func TestSearchListings_LikeWildcardsAreLiteral(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := validLoadRequest()
	req.Title = "100% pamuk"
	_, err := svc.CreateListing(ctx, 1, req)
	require.NoError(t, err)
	_, err = svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	out, err := svc.SearchListings(ctx, SearchFilters{Query: "%"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestAttachments(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	_, err = svc.AddAttachment(ctx, l.ID, 1, AttachmentImage, "/storage/listings/1/a.png")
	require.NoError(t, err)
	_, err = svc.AddAttachment(ctx, l.ID, 1, AttachmentImage, "/storage/listings/1/a.png")
	require.NoError(t, err)
	_, err = svc.AddAttachment(ctx, l.ID, 1, AttachmentDocument, "/storage/documents/1/cmr.pdf")
	require.NoError(t, err)

	got, err := svc.GetListingByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/storage/listings/1/a.png"}, []string(got.ImageURLs))
	assert.Equal(t, []string{"/storage/documents/1/cmr.pdf"}, []string(got.DocumentURLs))

	_, err = svc.RemoveAttachment(ctx, l.ID, 1, AttachmentImage, "/storage/listings/1/a.png")
	require.NoError(t, err)
	got, err = svc.GetListingByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ImageURLs)

	_, err = svc.AddAttachment(ctx, l.ID, 2, AttachmentImage, "x")
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = svc.AddAttachment(ctx, l.ID, 1, "video", "x")
	assert.ErrorIs(t, err, ErrInvalidAttachment)
}

func TestNormalizeMetadata_MovesNestedDocuments(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	legacy := &Listing{
		ListingNumber:     "NK2601010001",
		ListingType:       TypeTransportService,
		Title:             "Eski kayıt",
		Origin:            "İzmir",
		Destination:       "Mersin",
		Status:            StatusActive,
		Priority:          PriorityNormal,
		TransportMode:     ModeRoad,
		RequiredDocuments: datatypes.JSONSlice[string]{"CMR"},
		Metadata: datatypes.NewJSONType(Metadata{
			TransportDetails: &TransportDetails{
				PlateNumber:             "35 XYZ 99",
				LegacyRequiredDocuments: []string{"CMR", "Sigorta"},
			},
			ContactInfo: &ContactInfo{Contact: "info@example.com"},
		}),
		UserID: 1,
	}
	require.NoError(t, db.Create(legacy).Error)
	_, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	n, err := svc.NormalizeMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.GetListingByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CMR", "Sigorta"}, []string(got.RequiredDocuments))
	details := got.Metadata.Data().TransportDetails
	require.NotNil(t, details)
	assert.Empty(t, details.LegacyRequiredDocuments)
	assert.Equal(t, "35 XYZ 99", details.PlateNumber)

	n, err = svc.NormalizeMetadata(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type recordedEvents []notification.Event

func (r *recordedEvents) Publish(_ context.Context, e notification.Event) error {
	*r = append(*r, e)
	return nil
}

func TestExpireListings(t *testing.T) {
	svc, _, _ := newTestService(t)
	events := &recordedEvents{}
	svc.WithEvents(events)
	ctx := context.Background()

	past, err := svc.CreateListing(ctx, 1, validLoadRequest())
	require.NoError(t, err)

	future := validLoadRequest()
	future.LoadingDate = "2027-01-01"
	future.DeliveryDate = "2027-01-05"
	upcoming, err := svc.CreateListing(ctx, 1, future)
	require.NoError(t, err)

	ts, err := svc.CreateListing(ctx, 1, validTransportRequest(ModeRoad))
	require.NoError(t, err)

	n, err := svc.ExpireListings(ctx, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, *events, 1)
	assert.Equal(t, notification.TypeListingExpired, (*events)[0].Type)
	assert.Equal(t, past.ID, (*events)[0].ListingID)
	assert.Equal(t, int64(1), (*events)[0].UserID)

	for id, want := range map[string]Status{past.ID: StatusExpired, upcoming.ID: StatusActive, ts.ID: StatusActive} {
		got, err := svc.GetListingByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}
}

func TestOwnerOf(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateListing(ctx, 9, validLoadRequest())
	require.NoError(t, err)

	owner, err := svc.OwnerOf(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), owner)

	_, err = svc.OwnerOf(ctx, "nope")
	assert.ErrorIs(t, err, ErrListingNotFound)
}
