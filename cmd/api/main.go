package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hostel_hub/internal/adapters/blobstore"
	server "hostel_hub/internal/adapters/http_server"
	"hostel_hub/internal/adapters/identity"
	"hostel_hub/internal/adapters/mailer"
	"hostel_hub/internal/adapters/observability"
	redisad "hostel_hub/internal/adapters/redis"
	"hostel_hub/internal/app"
	"hostel_hub/internal/domain"
	"hostel_hub/internal/shared"
	"hostel_hub/internal/storage/memory"
	mysqlrepo "hostel_hub/internal/storage/mysql"
)

// backend is every repository port the API needs; both stores implement it.
type backend interface {
	domain.UserRepository
	domain.CredentialStore
	domain.HostelRepository
	domain.BookingRepository
	domain.PaymentRepository
	domain.FavoriteRepository
	domain.ContactRepository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	// storage + cache
	var (
		repo  backend
		cache domain.Cache
	)
	switch cfg.Store {
	case "memory":
		repo, cache = memory.New(), memory.NewCache()
		log.Warn().Msg("STORE=memory: data is lost on restart")
	default:
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)

		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; reads fall through to the database")
		}
		cache = rc
	}

	// identity provider
	var idp domain.IdentityProvider
	switch cfg.AuthProvider {
	case "remote":
		c, err := identity.New(cfg.IdentityBase, cfg.IdentityKey, cfg.IdentityRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize identity client")
		}
		idp = c
	default:
		idp = identity.NewLocal(repo, cfg.BcryptCost)
	}

	// optional blob storage
	var blobs domain.BlobStore
	if cfg.S3Bucket != "" {
		s3, err := blobstore.NewS3(ctx, blobstore.Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
			AccessKeyID:   cfg.S3AccessKeyID,
			SecretKey:     cfg.S3SecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize S3 client")
		}
		blobs = s3
	}

	var mail domain.Mailer = mailer.Log{}
	if cfg.SendGridKey != "" {
		mail = mailer.NewSendGrid(cfg.SendGridKey, cfg.SendGridHost, "Hostel Hub", cfg.MailFrom)
	}
	notify := app.NewNotifier(mail, cfg.SupportEmail)

	// services
	tokens := app.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	hostels := app.NewHostelService(repo, repo, cache, blobs, cfg.CacheTTL)
	h := &server.Handlers{
		Auth:         app.NewAuthService(repo, idp, tokens),
		Profiles:     app.NewProfileService(repo, blobs),
		Hostels:      hostels,
		Bookings:     app.NewBookingService(repo, repo, repo, cache, notify),
		Payments:     app.NewPaymentService(repo, repo, repo, notify),
		Favorites:    app.NewFavoriteService(repo, repo),
		Dashboard:    app.NewDashboardService(repo, repo, repo, repo),
		Landing:      app.NewLandingService(repo, repo, cache, notify, cfg.CacheTTL),
		CookieSecure: cfg.CookieSecure,
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	observability.Serve(cfg.MetricsAddr, observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Str("auth", cfg.AuthProvider).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
