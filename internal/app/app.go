// Package app assembles the HTTP router from configuration and open
// connections. cmd/api and the end-to-end tests share it.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"freightmarket/internal/config"
	"freightmarket/internal/database"
	"freightmarket/internal/domain/auth"
	"freightmarket/internal/domain/listing"
	"freightmarket/internal/domain/notification"
	"freightmarket/internal/domain/offer"
	"freightmarket/internal/domain/profile"
	"freightmarket/internal/domain/upload"
	"freightmarket/internal/middleware"
	"freightmarket/internal/pkg/jwt"
	"freightmarket/internal/pkg/response"
	"freightmarket/internal/storage"
)

// Models lists every table the API owns, in migration order.
func Models() []any {
	return []any{
		&auth.User{},
		&profile.Profile{},
		&listing.Listing{},
		&offer.Offer{},
		&notification.Notification{},
	}
}

// Services are the domain services behind the API. The cleanup job uses
// them without a router.
type Services struct {
	Profiles      *profile.Service
	Auth          *auth.Service
	Listings      *listing.Service
	Offers        *offer.Service
	Notifications *notification.Service
	Uploads       *upload.Service
	Hub           *notification.Hub
	JWT           *jwt.Service
}

// Deps are the connections the services run on. Extra publishers (AMQP)
// receive every lifecycle event next to the inbox and the websocket hub.
type Deps struct {
	DB      *gorm.DB
	Storage storage.Provider
	Extra   []notification.Publisher
}

// NewServices builds the service graph. No service is global; everything a
// service needs is passed in here.
func NewServices(cfg *config.Config, d Deps) (*Services, error) {
	x, err := database.SQLX(d.DB)
	if err != nil {
		return nil, fmt.Errorf("sqlx: %w", err)
	}

	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	profiles := profile.NewService(profile.NewRepository(x))
	inbox := notification.NewService(notification.NewRepository(d.DB))
	hub := notification.NewHub()

	events := notification.Fanout{inbox, hub}
	events = append(events, d.Extra...)

	listings := listing.NewService(listing.NewRepository(d.DB), profiles).WithEvents(events)

	s := &Services{
		Profiles:      profiles,
		Auth:          auth.NewService(auth.NewRepository(d.DB), profiles, jwtService),
		Listings:      listings,
		Offers:        offer.NewService(offer.NewRepository(d.DB, x), listings, profiles, events),
		Notifications: inbox,
		Hub:           hub,
		JWT:           jwtService,
	}
	if d.Storage != nil {
		s.Uploads = upload.NewService(d.Storage, jwtService, cfg.Storage.PublicBaseURL, cfg.SignedURLTTL)
	}
	return s, nil
}

// NewRouter mounts every route under /api/v1.
func NewRouter(cfg *config.Config, s *Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	authHandler := auth.NewHandler(s.Auth)
	profileHandler := profile.NewHandler(s.Profiles)
	listingHandler := listing.NewHandler(s.Listings)
	offerHandler := offer.NewHandler(s.Offers)
	notificationHandler := notification.NewHandler(s.Notifications, s.Hub, s.JWT, cfg.CORSAllowedOrigins)
	owns := middleware.NewOwnershipChecker(s.Listings).CheckListingOwnership()

	v1 := r.Group("/api/v1")
	{
		auth.RegisterRoutes(v1, authHandler)
		profile.RegisterPublicRoutes(v1, profileHandler)
		listing.RegisterPublicRoutes(v1, listingHandler)
		notification.RegisterPublicRoutes(v1, notificationHandler)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(s.JWT))
		{
			profile.RegisterRoutes(protected, profileHandler)
			listing.RegisterRoutes(protected, listingHandler, owns)
			offer.RegisterRoutes(protected, offerHandler)
			notification.RegisterRoutes(protected, notificationHandler)

			admin := protected.Group("")
			admin.Use(middleware.AdminOnly())
			listing.RegisterAdminRoutes(admin, listingHandler)
		}

		// uploads are mounted only when a storage backend is configured
		if s.Uploads != nil {
			uploadHandler := upload.NewHandler(s.Uploads, s.Listings)
			upload.RegisterPublicRoutes(v1, uploadHandler)
			upload.RegisterRoutes(protected, uploadHandler, owns)
		}
	}

	return r
}

// OpenStorage connects the configured object storage backend. The returned
// close function is never nil.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.Provider, func(context.Context) error, error) {
	switch cfg.Backend {
	case config.StorageGridFS:
		g, closeFn, err := storage.DialGridFS(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("storage_backend=gridfs database=%s", cfg.MongoDatabase)
		return g, closeFn, nil
	default:
		log.Printf("storage_backend=local dir=%s", cfg.Dir)
		return storage.NewLocal(cfg.Dir), func(context.Context) error { return nil }, nil
	}
}

// OpenEvents returns the AMQP publisher when RabbitMQ is configured.
func OpenEvents(cfg *config.Config) ([]notification.Publisher, func() error, error) {
	if cfg.RabbitMQURL == "" {
		return nil, func() error { return nil }, nil
	}
	p, err := notification.DialAMQP(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		return nil, nil, err
	}
	return []notification.Publisher{p}, p.Close, nil
}
