package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/controllers"
	"wardrobeapi/dbhelper"
	"wardrobeapi/models"
	"wardrobeapi/repository"
	"wardrobeapi/services"
	"wardrobeapi/storage"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

func connectBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := dbhelper.SetupDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		return storage.NewGormBackend(db), nil
	case config.StoreDriverMemory:
		log.Println("[Store] Using in-memory store, nothing will survive a restart")
		return storage.NewMemoryBackend(), nil
	default:
		return storage.NewSQLiteBackend(cfg.Store.DataDir)
	}
}

// openBackend never fails: a store that cannot be opened is replaced by one
// that reports every access, so the wardrobe starts empty and the API stays up.
func openBackend(cfg *config.Config) storage.Backend {
	backend, err := connectBackend(cfg)
	if err != nil {
		err = fmt.Errorf("%w: open %s store: %w", storage.ErrPersistenceUnavailable, cfg.Store.Driver, err)
		log.Printf("[Store] %v, continuing without persistence", err)
		sentry.CaptureException(err)
		return storage.NewUnavailableBackend(err)
	}
	return backend
}

func imageStore(ctx context.Context, cfg *config.Config) (services.ImageStore, error) {
	if !cfg.R2.Enabled() {
		return services.InlineImageStore{}, nil
	}
	awsService, err := services.NewR2Service(ctx, cfg.R2)
	if err != nil {
		return nil, err
	}
	urlCache, err := services.NewURLCacheService(awsService, cfg.R2.Bucket)
	if err != nil {
		return nil, err
	}
	return services.NewR2ImageStore(awsService, urlCache, cfg.R2.Bucket), nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		Release:          "wardrobeapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := openBackend(cfg)
	defer backend.Close()

	items := repository.NewItemRepository(ctx, storage.NewSlot[models.ClothingItem](backend, storage.ItemsKey))
	outfits := repository.NewOutfitRepository(ctx, storage.NewSlot[models.Outfit](backend, storage.OutfitsKey))
	log.Printf("[Wardrobe] Loaded %d items and %d outfits", items.Len(), len(outfits.List()))

	var llm services.LLMProcessor
	processor, err := services.NewGoogleLLMProcessor(ctx, cfg.LLM.APIKey, services.LLMModelName(cfg.LLM.Model))
	if err != nil {
		log.Printf("[Stylist] AI features disabled: %v", err)
	} else {
		llm = processor
	}

	images, err := imageStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize image storage: %w", err)
	}

	e := controllers.SetupServer(controllers.App{
		Items:             items,
		Outfits:           outfits,
		Stylist:           services.NewStylist(llm, cfg.LLM.Timeout),
		Images:            images,
		Guard:             services.NewActionGuard(),
		JWTSecret:         cfg.JWTSecret,
		MaxImageDimension: cfg.Images.MaxDimension,
		MaxImageBytes:     int64(cfg.Images.MaxBytes),
	})
	e.Debug = cfg.Env == "local"

	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[Wardrobe] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
