package listing

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"freightmarket/internal/pkg/validator"
)

const maxTitleLength = 200

var (
	validTypes = map[Type]bool{
		TypeLoadListing: true, TypeShipmentRequest: true, TypeTransportService: true,
	}
	validStatuses = map[Status]bool{
		StatusDraft: true, StatusActive: true, StatusPaused: true,
		StatusCompleted: true, StatusCancelled: true, StatusExpired: true,
	}
	validPriorities = map[Priority]bool{
		PriorityLow: true, PriorityNormal: true, PriorityHigh: true, PriorityUrgent: true,
	}
	validOfferTypes = map[OfferType]bool{
		OfferFixedPrice: true, OfferNegotiable: true, OfferAuction: true, OfferFreeQuote: true,
	}
	validResponsibles = map[TransportResponsible]bool{
		ResponsibleBuyer: true, ResponsibleSeller: true, ResponsibleCarrier: true, ResponsibleNegotiable: true,
	}
	validModes = map[TransportMode]bool{
		ModeRoad: true, ModeSea: true, ModeAir: true, ModeRail: true, ModeMultimodal: true,
	}
	validCurrencies = map[string]bool{"TRY": true, "USD": true, "EUR": true}
)

func validateCommon(errs validator.Errors, c *Common) {
	if strings.TrimSpace(c.Title) == "" {
		errs.Add("title", "required")
	} else if utf8.RuneCountInString(c.Title) > maxTitleLength {
		errs.Add("title", "max")
	}
	if strings.TrimSpace(c.Origin) == "" {
		errs.Add("origin", "required")
	}
	if strings.TrimSpace(c.Destination) == "" {
		errs.Add("destination", "required")
	}
	if c.Status != "" && !validStatuses[c.Status] {
		errs.Add("status", "oneof")
	}
	if c.Priority != "" && !validPriorities[c.Priority] {
		errs.Add("priority", "oneof")
	}
	if c.TransportMode != "" && !validModes[c.TransportMode] {
		errs.Add("transport_mode", "oneof")
	}
}

func validateCargo(errs validator.Errors, c *Cargo) {
	if c.LoadingDate == nil {
		errs.Add("loading_date", "required")
	}
	if c.DeliveryDate == nil {
		errs.Add("delivery_date", "required")
	}
	if c.LoadingDate != nil && c.DeliveryDate != nil && !c.DeliveryDate.After(*c.LoadingDate) {
		errs.Add("delivery_date", "after_loading_date")
	}

	positiveFloat(errs, "weight_value", c.WeightValue)
	positiveFloat(errs, "volume_value", c.VolumeValue)
	if c.Quantity != nil && *c.Quantity <= 0 {
		errs.Add("quantity", "gt_zero")
	}

	if c.OfferType != OfferFreeQuote {
		validatePrice(errs, c.Price, c.PriceCurrency)
	}
	if c.OfferType != "" && !validOfferTypes[c.OfferType] {
		errs.Add("offer_type", "oneof")
	}
	if c.TransportResponsible != "" && !validResponsibles[c.TransportResponsible] {
		errs.Add("transport_responsible", "oneof")
	}
}

func validateTransportService(errs validator.Errors, d *TransportService) {
	if d.TransportMode == "" {
		errs.Add("transport_mode", "required")
	}
	if d.AvailableFromDate == nil {
		errs.Add("available_from_date", "required")
	}
	if strings.TrimSpace(d.Contact.Contact) == "" {
		errs.Add("contact", "required")
	}
	validatePrice(errs, d.Price, d.PriceCurrency)

	switch d.TransportMode {
	case ModeRoad:
		requireText(errs, "plate_number", d.Details.PlateNumber)
	case ModeSea:
		requireText(errs, "ship_name", d.Details.ShipName)
		validateLaycan(errs, d.Details.LaycanStart, d.Details.LaycanEnd)
	case ModeAir:
		requireText(errs, "flight_number", d.Details.FlightNumber)
	case ModeRail:
		requireText(errs, "train_number", d.Details.TrainNumber)
	}
}

func validateLaycan(errs validator.Errors, start, end string) {
	var from, to *time.Time
	if start != "" {
		if from = parseDate(start); from == nil {
			errs.Add("laycan_start", "invalid_date")
		}
	}
	if end != "" {
		if to = parseDate(end); to == nil {
			errs.Add("laycan_end", "invalid_date")
		}
	}
	if from != nil && to != nil && from.After(*to) {
		errs.Add("laycan_end", "gte_laycan_start")
	}
}

func validatePrice(errs validator.Errors, price decimal.NullDecimal, currency string) {
	if price.Valid && !price.Decimal.IsPositive() {
		errs.Add("price_amount", "gt_zero")
	}
	if currency != "" && !validCurrencies[currency] {
		errs.Add("price_currency", "oneof")
	}
}

func positiveFloat(errs validator.Errors, field string, v *float64) {
	if v != nil && *v <= 0 {
		errs.Add(field, "gt_zero")
	}
}

func requireText(errs validator.Errors, field, v string) {
	if strings.TrimSpace(v) == "" {
		errs.Add(field, "required")
	}
}

// parseDate accepts calendar dates (2006-01-02) and RFC 3339 timestamps.
func parseDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
