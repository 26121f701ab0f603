package offer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"freightmarket/internal/pkg/validator"
)

const defaultCurrency = "TRY"

// Terms are the commercial and logistics fields an offer creator controls.
// Preferred dates are calendar days ("2006-01-02") or RFC3339.
type Terms struct {
	OfferType     Type             `json:"offer_type" validate:"required,oneof=bid quote direct_offer"`
	PriceAmount   *decimal.Decimal `json:"price_amount"`
	PriceCurrency string           `json:"price_currency" validate:"omitempty,oneof=TRY USD EUR"`
	PricePer      PricePer         `json:"price_per" validate:"omitempty,oneof=total per_km per_ton per_ton_km per_pallet per_hour per_day per_container per_teu per_cbm per_piece per_vehicle"`

	TransportMode         string       `json:"transport_mode" validate:"omitempty,oneof=road sea air rail multimodal"`
	CargoType             string       `json:"cargo_type" validate:"max=100"`
	ServiceScope          ServiceScope `json:"service_scope" validate:"omitempty,oneof=door_to_door port_to_port terminal_to_terminal warehouse_to_warehouse pickup_only delivery_only"`
	PickupDatePreferred   string       `json:"pickup_date_preferred"`
	DeliveryDatePreferred string       `json:"delivery_date_preferred"`
	TransitTimeEstimate   string       `json:"transit_time_estimate" validate:"max=100"`

	CustomsHandlingIncluded       bool `json:"customs_handling_included"`
	DocumentationHandlingIncluded bool `json:"documentation_handling_included"`
	LoadingUnloadingIncluded      bool `json:"loading_unloading_included"`
	TrackingSystemProvided        bool `json:"tracking_system_provided"`
	ExpressService                bool `json:"express_service"`
	WeekendService                bool `json:"weekend_service"`
	FuelSurchargeIncluded         bool `json:"fuel_surcharge_included"`
	TollFeesIncluded              bool `json:"toll_fees_included"`

	Message            string         `json:"message" validate:"max=2000"`
	SpecialConditions  string         `json:"special_conditions" validate:"max=2000"`
	ContactPerson      string         `json:"contact_person" validate:"max=120"`
	ContactPhone       string         `json:"contact_phone" validate:"max=32"`
	PaymentTerms       string         `json:"payment_terms" validate:"max=500"`
	PaymentMethod      string         `json:"payment_method" validate:"max=64"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	ValidUntil         *time.Time     `json:"valid_until"`
	AdditionalTerms    map[string]any `json:"additional_terms"`
	AdditionalServices map[string]any `json:"additional_services"`
}

type CreateOfferRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Terms
}

// Offer validates the request and builds an unsaved pending offer.
func (r *CreateOfferRequest) Offer(userID int64, now time.Time) (*Offer, validator.Errors) {
	r.PriceCurrency = strings.ToUpper(strings.TrimSpace(r.PriceCurrency))
	errs := validator.Validate(r)
	if errs == nil {
		errs = validator.Errors{}
	}

	o := &Offer{
		ListingID:                     strings.TrimSpace(r.ListingID),
		UserID:                        userID,
		OfferType:                     r.OfferType,
		PriceCurrency:                 r.PriceCurrency,
		PricePer:                      r.PricePer,
		TransportMode:                 r.TransportMode,
		CargoType:                     strings.TrimSpace(r.CargoType),
		ServiceScope:                  r.ServiceScope,
		PickupDatePreferred:           dateField(errs, "pickup_date_preferred", r.PickupDatePreferred),
		DeliveryDatePreferred:         dateField(errs, "delivery_date_preferred", r.DeliveryDatePreferred),
		TransitTimeEstimate:           strings.TrimSpace(r.TransitTimeEstimate),
		CustomsHandlingIncluded:       r.CustomsHandlingIncluded,
		DocumentationHandlingIncluded: r.DocumentationHandlingIncluded,
		LoadingUnloadingIncluded:      r.LoadingUnloadingIncluded,
		TrackingSystemProvided:        r.TrackingSystemProvided,
		ExpressService:                r.ExpressService,
		WeekendService:                r.WeekendService,
		FuelSurchargeIncluded:         r.FuelSurchargeIncluded,
		TollFeesIncluded:              r.TollFeesIncluded,
		Message:                       strings.TrimSpace(r.Message),
		SpecialConditions:             strings.TrimSpace(r.SpecialConditions),
		ContactPerson:                 strings.TrimSpace(r.ContactPerson),
		ContactPhone:                  strings.TrimSpace(r.ContactPhone),
		PaymentTerms:                  strings.TrimSpace(r.PaymentTerms),
		PaymentMethod:                 strings.TrimSpace(r.PaymentMethod),
		ExpiresAt:                     utc(r.ExpiresAt),
		ValidUntil:                    utc(r.ValidUntil),
		AdditionalTerms:               jsonMap(r.AdditionalTerms),
		AdditionalServices:            jsonMap(r.AdditionalServices),
	}
	if o.PriceCurrency == "" {
		o.PriceCurrency = defaultCurrency
	}
	if o.PricePer == "" {
		o.PricePer = PerTotal
	}
	if r.PriceAmount == nil {
		errs.Add("price_amount", "required")
	} else {
		o.PriceAmount = *r.PriceAmount
	}

	validateTerms(errs, o, now, true, true)
	return o, errs
}

// UpdateOfferRequest edits a pending offer. Version, when set, must match
// the stored version.
type UpdateOfferRequest struct {
	Version *int `json:"version"`

	PriceAmount   *decimal.Decimal `json:"price_amount"`
	PriceCurrency *string          `json:"price_currency"`
	PricePer      *PricePer        `json:"price_per" validate:"omitempty,oneof=total per_km per_ton per_ton_km per_pallet per_hour per_day per_container per_teu per_cbm per_piece per_vehicle"`

	TransportMode         *string       `json:"transport_mode" validate:"omitempty,oneof=road sea air rail multimodal"`
	CargoType             *string       `json:"cargo_type" validate:"omitempty,max=100"`
	ServiceScope          *ServiceScope `json:"service_scope" validate:"omitempty,oneof=door_to_door port_to_port terminal_to_terminal warehouse_to_warehouse pickup_only delivery_only"`
	PickupDatePreferred   *string       `json:"pickup_date_preferred"`
	DeliveryDatePreferred *string       `json:"delivery_date_preferred"`
	TransitTimeEstimate   *string       `json:"transit_time_estimate" validate:"omitempty,max=100"`

	CustomsHandlingIncluded       *bool `json:"customs_handling_included"`
	DocumentationHandlingIncluded *bool `json:"documentation_handling_included"`
	LoadingUnloadingIncluded      *bool `json:"loading_unloading_included"`
	TrackingSystemProvided        *bool `json:"tracking_system_provided"`
	ExpressService                *bool `json:"express_service"`
	WeekendService                *bool `json:"weekend_service"`
	FuelSurchargeIncluded         *bool `json:"fuel_surcharge_included"`
	TollFeesIncluded              *bool `json:"toll_fees_included"`

	Message            *string        `json:"message" validate:"omitempty,max=2000"`
	SpecialConditions  *string        `json:"special_conditions" validate:"omitempty,max=2000"`
	ContactPerson      *string        `json:"contact_person" validate:"omitempty,max=120"`
	ContactPhone       *string        `json:"contact_phone" validate:"omitempty,max=32"`
	PaymentTerms       *string        `json:"payment_terms" validate:"omitempty,max=500"`
	PaymentMethod      *string        `json:"payment_method" validate:"omitempty,max=64"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	ValidUntil         *time.Time     `json:"valid_until"`
	AdditionalTerms    map[string]any `json:"additional_terms"`
	AdditionalServices map[string]any `json:"additional_services"`
}

// apply copies the set fields onto o and returns the changed columns.
func (r *UpdateOfferRequest) apply(o *Offer, now time.Time) ([]string, validator.Errors) {
	errs := validator.Validate(r)
	if errs == nil {
		errs = validator.Errors{}
	}

	var cols []string
	setStr := func(col string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			cols = append(cols, col)
		}
	}
	setBool := func(col string, dst *bool, v *bool) {
		if v != nil {
			*dst = *v
			cols = append(cols, col)
		}
	}

	if r.PriceAmount != nil {
		o.PriceAmount = *r.PriceAmount
		cols = append(cols, "price_amount")
	}
	if r.PriceCurrency != nil {
		o.PriceCurrency = strings.ToUpper(strings.TrimSpace(*r.PriceCurrency))
		if !validCurrencies[o.PriceCurrency] {
			errs.Add("price_currency", "oneof")
		}
		cols = append(cols, "price_currency")
	}
	if r.PricePer != nil {
		o.PricePer = *r.PricePer
		cols = append(cols, "price_per")
	}
	setStr("transport_mode", &o.TransportMode, r.TransportMode)
	setStr("cargo_type", &o.CargoType, r.CargoType)
	if r.ServiceScope != nil {
		o.ServiceScope = *r.ServiceScope
		cols = append(cols, "service_scope")
	}
	if r.PickupDatePreferred != nil {
		o.PickupDatePreferred = dateField(errs, "pickup_date_preferred", *r.PickupDatePreferred)
		cols = append(cols, "pickup_date_preferred")
	}
	if r.DeliveryDatePreferred != nil {
		o.DeliveryDatePreferred = dateField(errs, "delivery_date_preferred", *r.DeliveryDatePreferred)
		cols = append(cols, "delivery_date_preferred")
	}
	setStr("transit_time_estimate", &o.TransitTimeEstimate, r.TransitTimeEstimate)

	setBool("customs_handling_included", &o.CustomsHandlingIncluded, r.CustomsHandlingIncluded)
	setBool("documentation_handling_included", &o.DocumentationHandlingIncluded, r.DocumentationHandlingIncluded)
	setBool("loading_unloading_included", &o.LoadingUnloadingIncluded, r.LoadingUnloadingIncluded)
	setBool("tracking_system_provided", &o.TrackingSystemProvided, r.TrackingSystemProvided)
	setBool("express_service", &o.ExpressService, r.ExpressService)
	setBool("weekend_service", &o.WeekendService, r.WeekendService)
	setBool("fuel_surcharge_included", &o.FuelSurchargeIncluded, r.FuelSurchargeIncluded)
	setBool("toll_fees_included", &o.TollFeesIncluded, r.TollFeesIncluded)

	setStr("message", &o.Message, r.Message)
	setStr("special_conditions", &o.SpecialConditions, r.SpecialConditions)
	setStr("contact_person", &o.ContactPerson, r.ContactPerson)
	setStr("contact_phone", &o.ContactPhone, r.ContactPhone)
	setStr("payment_terms", &o.PaymentTerms, r.PaymentTerms)
	setStr("payment_method", &o.PaymentMethod, r.PaymentMethod)

	if r.ExpiresAt != nil {
		o.ExpiresAt = utc(r.ExpiresAt)
		cols = append(cols, "expires_at")
	}
	if r.ValidUntil != nil {
		o.ValidUntil = utc(r.ValidUntil)
		cols = append(cols, "valid_until")
	}
	if r.AdditionalTerms != nil {
		o.AdditionalTerms = jsonMap(r.AdditionalTerms)
		cols = append(cols, "additional_terms")
	}
	if r.AdditionalServices != nil {
		o.AdditionalServices = jsonMap(r.AdditionalServices)
		cols = append(cols, "additional_services")
	}

	// deadlines already in the past are only rejected when being changed
	validateTerms(errs, o, now, r.ExpiresAt != nil, r.ValidUntil != nil)
	return cols, errs
}

// TransitionRequest is the optional body of accept, reject and withdraw.
type TransitionRequest struct {
	Version *int `json:"version"`
}

var validCurrencies = map[string]bool{"TRY": true, "USD": true, "EUR": true}

func validateTerms(errs validator.Errors, o *Offer, now time.Time, checkExpires, checkValidUntil bool) {
	if !o.PriceAmount.IsPositive() {
		errs.Add("price_amount", "gt_zero")
	}
	if checkExpires && o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
		errs.Add("expires_at", "future")
	}
	if checkValidUntil && o.ValidUntil != nil && !o.ValidUntil.After(now) {
		errs.Add("valid_until", "future")
	}
	if o.PickupDatePreferred != nil && o.DeliveryDatePreferred != nil &&
		!o.DeliveryDatePreferred.After(*o.PickupDatePreferred) {
		errs.Add("delivery_date_preferred", "after_pickup_date")
	}
}

func dateField(errs validator.Errors, field, v string) *time.Time {
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
	errs.Add(field, "invalid_date")
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func jsonMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	return datatypes.JSONMap(m)
}
