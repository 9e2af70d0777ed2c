package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oelhadidy/agrovet-backend/api"
	"github.com/oelhadidy/agrovet-backend/api/routes"
	"github.com/oelhadidy/agrovet-backend/internal/articles"
	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/internal/catalog"
	checkoutsvc "github.com/oelhadidy/agrovet-backend/internal/checkout"
	"github.com/oelhadidy/agrovet-backend/internal/favorites"
	"github.com/oelhadidy/agrovet-backend/internal/notifications"
	"github.com/oelhadidy/agrovet-backend/internal/orders"
	"github.com/oelhadidy/agrovet-backend/internal/statestore"
	"github.com/oelhadidy/agrovet-backend/internal/users"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/migrate"
	"github.com/oelhadidy/agrovet-backend/pkg/paymob"
	"github.com/oelhadidy/agrovet-backend/pkg/paypal"
	"github.com/oelhadidy/agrovet-backend/pkg/pubsub"
	"github.com/oelhadidy/agrovet-backend/pkg/redis"
	"github.com/oelhadidy/agrovet-backend/pkg/slots"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	slotStore, err := slots.NewRedisStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create slot store", err)
		os.Exit(1)
	}

	stateAdapter, err := statestore.NewAdapter(statestore.NewRepository(dbClient.DB()), cfg.StateSync, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create state adapter", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Repo:     catalog.NewRepository(dbClient.DB()),
		Notifier: notificationsSvc,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Manager:   cart.NewManager(),
		Persister: stateAdapter,
		Loader:    stateAdapter,
		Catalog:   catalogSvc,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	favoritesSvc, err := favorites.NewService(favorites.ServiceParams{
		Manager:   favorites.NewManager(),
		Persister: stateAdapter,
		Loader:    stateAdapter,
		Catalog:   catalogSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}

	articlesSvc, err := articles.NewService(articles.ServiceParams{
		Repo:   articles.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create articles service", err)
		os.Exit(1)
	}

	usersSvc, err := users.NewService(users.ServiceParams{
		Repo:     users.NewRepository(dbClient.DB()),
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	ordersParams := orders.ServiceParams{
		Repo:     orders.NewRepository(dbClient.DB()),
		Notifier: notificationsSvc,
		Logger:   logg,
	}
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create pubsub client", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		ordersParams.Publisher = pubsubClient
	}

	ordersSvc, err := orders.NewService(ordersParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutParams := checkoutsvc.ServiceParams{
		Cart:   cartSvc,
		Orders: ordersSvc,
		Stock:  catalogSvc,
		Slots:  slotStore,
		Config: cfg.Checkout,
		Logger: logg,
	}
	if cfg.PayPal.ClientID != "" {
		paypalClient, err := paypal.NewClient(cfg.PayPal, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create paypal client", err)
			os.Exit(1)
		}
		checkoutParams.PayPal = paypalClient
	}
	if cfg.Paymob.APIKey != "" {
		paymobClient, err := paymob.NewClient(cfg.Paymob, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create paymob client", err)
			os.Exit(1)
		}
		checkoutParams.Paymob = paymobClient
	}

	checkoutSvc, err := checkoutsvc.NewService(checkoutParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg, routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      dbClient,
		Redis:         redisClient,
		Users:         usersSvc,
		Catalog:       catalogSvc,
		Cart:          cartSvc,
		Favorites:     favoritesSvc,
		Articles:      articlesSvc,
		Orders:        ordersSvc,
		Notifications: notificationsSvc,
		Checkout:      checkoutSvc,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		// Let in-flight mirror writes land before the process exits.
		stateAdapter.Wait()
	}
}
