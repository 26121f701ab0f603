package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"freightmarket/internal/app"
	"freightmarket/internal/config"
	"freightmarket/internal/database"
	"freightmarket/internal/domain/auth"
	"freightmarket/internal/domain/listing"
	"freightmarket/internal/domain/offer"
)

var cities = []string{"İstanbul", "Ankara", "İzmir", "Bursa", "Mersin", "Konya", "Kocaeli", "Gaziantep"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db, app.Models()...); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (children first)
	log.Println("Cleaning old data...")
	for _, table := range []string{"notifications", "offers", "listings", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	s, err := app.NewServices(cfg, app.Deps{DB: db})
	if err != nil {
		log.Fatalf("services: %v", err)
	}
	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// ================== USERS ==================
	log.Println("Creating users...")
	shippers := register(ctx, s.Auth, []string{"ayse@yukver.com.tr", "murat@tekstilas.com.tr", "elif@gidalojistik.com"}, "Yük Veren", "shipper123")
	carriers := register(ctx, s.Auth, []string{"mehmet@kayanakliyat.com", "hasan@anadolutir.com", "zeynep@egedeniz.com"}, "Taşıyıcı", "carrier123")

	// ================== LISTINGS ==================
	log.Println("Creating listings...")
	var cargo []*listing.Listing
	for i := 0; i < 8; i++ {
		owner := shippers[i%len(shippers)]
		origin, destination := route(rng)
		loading := time.Now().AddDate(0, 0, 3+rng.Intn(20))
		weight := float64(5 + rng.Intn(20))
		price := decimal.NewFromInt(int64(8000 + rng.Intn(30)*500))

		listingType := listing.TypeLoadListing
		if i%3 == 2 {
			listingType = listing.TypeShipmentRequest
		}
		l, err := s.Listings.CreateListing(ctx, owner, &listing.CreateListingRequest{
			ListingType:   listingType,
			Title:         fmt.Sprintf("%s - %s parsiyel yük", origin, destination),
			Description:   "Paletli, istiflenebilir yük. Tenteli araç tercih edilir.",
			Origin:        origin,
			Destination:   destination,
			LoadingDate:   loading.Format("2006-01-02"),
			DeliveryDate:  loading.AddDate(0, 0, 1+rng.Intn(3)).Format("2006-01-02"),
			WeightValue:   &weight,
			WeightUnit:    "ton",
			PriceAmount:   &price,
			PriceCurrency: "TRY",
			OfferType:     listing.OfferNegotiable,
			VehicleTypes:  []string{"tenteli", "kapalı kasa"},
		})
		if err != nil {
			log.Fatalf("create listing failed: %v", err)
		}
		cargo = append(cargo, l)
	}

	for i, carrier := range carriers {
		origin, destination := route(rng)
		_, err := s.Listings.CreateListing(ctx, carrier, &listing.CreateListingRequest{
			ListingType:       listing.TypeTransportService,
			Title:             fmt.Sprintf("%s çıkışlı boş araç", origin),
			Origin:            origin,
			Destination:       destination,
			TransportMode:     listing.ModeRoad,
			AvailableFromDate: time.Now().AddDate(0, 0, i+1).Format("2006-01-02"),
			Metadata: &listing.Metadata{
				TransportDetails: &listing.TransportDetails{PlateNumber: fmt.Sprintf("34 TR %03d", 100+i)},
				ContactInfo:      &listing.ContactInfo{Contact: fmt.Sprintf("+90 532 000 00 %02d", i)},
			},
		})
		if err != nil {
			log.Fatalf("create transport service failed: %v", err)
		}
	}

	// ================== OFFERS ==================
	log.Println("Creating offers...")
	count := 0
	for _, l := range cargo {
		awarded := false
		for _, carrier := range carriers {
			if rng.Intn(2) == 0 {
				continue
			}
			price := l.PriceAmount.Decimal.Mul(decimal.NewFromFloat(0.85 + rng.Float64()*0.3)).Round(0)
			o, err := s.Offers.CreateOffer(ctx, carrier, &offer.CreateOfferRequest{
				ListingID: l.ID,
				Terms: offer.Terms{
					OfferType:              offer.TypeBid,
					PriceAmount:            &price,
					PricePer:               offer.PerTotal,
					TransportMode:          "road",
					Message:                "Aracımız müsait, yükleme gününe hazırız.",
					TrackingSystemProvided: true,
				},
			})
			if err != nil {
				log.Fatalf("create offer failed: %v", err)
			}
			count++

			if !awarded && rng.Intn(4) == 0 {
				if _, err := s.Offers.AcceptOffer(ctx, o.ID, l.UserID, nil); err != nil {
					log.Fatalf("accept offer failed: %v", err)
				}
				awarded = true
			}
		}
	}

	log.Printf("Seed completed: shippers=%d carriers=%d listings=%d offers=%d", len(shippers), len(carriers), len(cargo)+len(carriers), count)
	log.Println("Logins: <email> / shipper123 or carrier123")
}

func register(ctx context.Context, svc *auth.Service, emails []string, label, password string) []int64 {
	ids := make([]int64, 0, len(emails))
	for i, email := range emails {
		res, err := svc.Register(ctx, auth.RegisterRequest{
			Email:    email,
			Password: password,
			FullName: fmt.Sprintf("%s %d", label, i+1),
		})
		if err != nil {
			log.Fatalf("register %s failed: %v", email, err)
		}
		ids = append(ids, res.User.ID)
	}
	return ids
}

func route(rng *rand.Rand) (string, string) {
	i := rng.Intn(len(cities))
	j := (i + 1 + rng.Intn(len(cities)-1)) % len(cities)
	return cities[i], cities[j]
}
