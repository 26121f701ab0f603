package listing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLoadRequest() *CreateListingRequest {
	price := decimal.NewFromInt(15000)
	weight := 12.5
	return &CreateListingRequest{
		ListingType:   TypeLoadListing,
		Title:         "İstanbul - Ankara tekstil yükü",
		Origin:        "İstanbul",
		Destination:   "Ankara",
		LoadingDate:   "2026-11-01",
		DeliveryDate:  "2026-11-03",
		WeightValue:   &weight,
		WeightUnit:    "ton",
		PriceAmount:   &price,
		PriceCurrency: "try",
		OfferType:     OfferNegotiable,
	}
}

func validTransportRequest(mode TransportMode) *CreateListingRequest {
	return &CreateListingRequest{
		ListingType:       TypeTransportService,
		Title:             "Haftalık parsiyel sefer",
		Origin:            "İzmir",
		Destination:       "Mersin",
		TransportMode:     mode,
		AvailableFromDate: "2026-11-10",
		Metadata: &Metadata{
			TransportDetails: &TransportDetails{
				PlateNumber:  "35 ABC 123",
				ShipName:     "MV Anadolu",
				FlightNumber: "TK6543",
				TrainNumber:  "TCDD-42",
			},
			ContactInfo: &ContactInfo{Contact: "+90 555 000 00 00"},
		},
	}
}

func TestDraft_LoadListingValid(t *testing.T) {
	d, errs := validLoadRequest().Draft()
	require.NoError(t, errs.Err())

	load, ok := d.(*LoadListing)
	require.True(t, ok)
	assert.Equal(t, "TRY", load.PriceCurrency)
	assert.Equal(t, 2026, load.LoadingDate.Year())
}

func TestDraft_LoadListingMissingRequired(t *testing.T) {
	req := &CreateListingRequest{ListingType: TypeLoadListing, Title: "  "}

	_, errs := req.Draft()

	assert.Equal(t, "required", errs["title"])
	assert.Equal(t, "required", errs["origin"])
	assert.Equal(t, "required", errs["destination"])
	assert.Equal(t, "required", errs["loading_date"])
	assert.Equal(t, "required", errs["delivery_date"])
}

func TestDraft_DeliveryMustFollowLoading(t *testing.T) {
	for _, delivery := range []string{"2026-11-01", "2026-10-30"} {
		req := validLoadRequest()
		req.DeliveryDate = delivery

		_, errs := req.Draft()
		assert.Equal(t, "after_loading_date", errs["delivery_date"], delivery)
	}
}

func TestDraft_InvalidDateReported(t *testing.T) {
	req := validLoadRequest()
	req.LoadingDate = "01/11/2026"

	_, errs := req.Draft()
	assert.Equal(t, "invalid_date", errs["loading_date"])
}

func TestDraft_PriceRules(t *testing.T) {
	zero := decimal.Zero

	req := validLoadRequest()
	req.PriceAmount = &zero
	_, errs := req.Draft()
	assert.Equal(t, "gt_zero", errs["price_amount"])

	req.OfferType = OfferFreeQuote
	_, errs = req.Draft()
	assert.NoError(t, errs.Err())

	req = validLoadRequest()
	req.PriceCurrency = "GBP"
	_, errs = req.Draft()
	assert.Equal(t, "oneof", errs["price_currency"])
}

func TestDraft_ShipmentRequestUsesCargoRules(t *testing.T) {
	req := validLoadRequest()
	req.ListingType = TypeShipmentRequest
	req.DeliveryDate = ""

	d, errs := req.Draft()
	assert.IsType(t, &ShipmentRequest{}, d)
	assert.Equal(t, "required", errs["delivery_date"])
}

func TestDraft_UnknownType(t *testing.T) {
	req := validLoadRequest()
	req.ListingType = "vehicle_sale"

	d, errs := req.Draft()
	assert.Nil(t, d)
	assert.Equal(t, "oneof", errs["listing_type"])
}

func TestDraft_TransportServiceModeFields(t *testing.T) {
	tests := []struct {
		mode  TransportMode
		clear func(*TransportDetails)
		field string
	}{
		{ModeRoad, func(d *TransportDetails) { d.PlateNumber = "" }, "plate_number"},
		{ModeSea, func(d *TransportDetails) { d.ShipName = "" }, "ship_name"},
		{ModeAir, func(d *TransportDetails) { d.FlightNumber = "" }, "flight_number"},
		{ModeRail, func(d *TransportDetails) { d.TrainNumber = "" }, "train_number"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			req := validTransportRequest(tt.mode)
			_, errs := req.Draft()
			require.NoError(t, errs.Err())

			tt.clear(req.Metadata.TransportDetails)
			_, errs = req.Draft()
			assert.Equal(t, "required", errs[tt.field])
		})
	}
}

func TestDraft_TransportServiceRequiredFields(t *testing.T) {
	req := validTransportRequest("")
	req.AvailableFromDate = ""
	req.Metadata.ContactInfo = nil

	_, errs := req.Draft()
	assert.Equal(t, "required", errs["transport_mode"])
	assert.Equal(t, "required", errs["available_from_date"])
	assert.Equal(t, "required", errs["contact"])
}

func TestDraft_SeaLaycanOrder(t *testing.T) {
	req := validTransportRequest(ModeSea)
	req.Metadata.TransportDetails.LaycanStart = "2026-11-20"
	req.Metadata.TransportDetails.LaycanEnd = "2026-11-15"

	_, errs := req.Draft()
	assert.Equal(t, "gte_laycan_start", errs["laycan_end"])

	req.Metadata.TransportDetails.LaycanEnd = "2026-11-20"
	_, errs = req.Draft()
	assert.NoError(t, errs.Err())
}

func TestDraft_NestedRequiredDocumentsMovedToTopLevel(t *testing.T) {
	req := validTransportRequest(ModeRoad)
	req.RequiredDocuments = []string{"CMR", "Fatura"}
	req.Metadata.TransportDetails.LegacyRequiredDocuments = []string{"Fatura", "ATR"}

	d, errs := req.Draft()
	require.NoError(t, errs.Err())

	row := d.Row(7)
	assert.Equal(t, []string{"CMR", "Fatura", "ATR"}, []string(row.RequiredDocuments))
	assert.Empty(t, row.Metadata.Data().TransportDetails.LegacyRequiredDocuments)
	assert.Equal(t, "35 ABC 123", row.Metadata.Data().TransportDetails.PlateNumber)
}

func TestVariant_RoundTrip(t *testing.T) {
	d, errs := validTransportRequest(ModeAir).Draft()
	require.NoError(t, errs.Err())

	row := d.Row(3)
	back, ok := row.Variant().(*TransportService)
	require.True(t, ok)
	assert.Equal(t, "TK6543", back.Details.FlightNumber)
	assert.Equal(t, "+90 555 000 00 00", back.Contact.Contact)
	assert.Equal(t, ModeAir, back.TransportMode)
	assert.NoError(t, back.Validate().Err())
}
