package main

// GET /cart - Current cart contents
// POST /cart/products/{id} - Add one unit of a product
// DELETE /cart/products/{id} - Remove a product from the cart
// PUT /cart/products/{id} - Set the amount of a product already in the cart
// GET /notifications - Drain pending user notifications

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"shopping-cart/catalog"
	"shopping-cart/config"
	"shopping-cart/handler"
	"shopping-cart/logger"
	"shopping-cart/model"
	"shopping-cart/notify"
	"shopping-cart/service"
	"shopping-cart/shutdown"
	"shopping-cart/store"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", slog.Any("err", err))
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		Service: "cart",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("cart stopped", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

func openStore(ctx context.Context, cfg config.Storage) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendFile:
		return store.NewFileStore(cfg.Dir)
	case config.BackendPostgres:
		st, err := store.NewPostgresStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// --- Store ---
	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "open snapshot store")
	}
	defer st.Close()

	// --- Catalog ---
	cat, err := catalog.NewClient(cfg.Catalog.BaseURL, catalog.WithTimeout(cfg.Catalog.Timeout))
	if err != nil {
		return err
	}

	// --- Service ---
	feed := notify.NewFeed(50)
	cart, err := service.NewCartStore(ctx, st, cat,
		service.WithSnapshotKey(cfg.Storage.Key),
		service.WithNotifier(notify.Multi{notify.LogNotifier{Log: log}, feed}),
		service.WithLogger(log),
	)
	if err != nil {
		return err
	}
	cart.Subscribe(func(c model.Cart) {
		log.Info("cart changed", slog.Int("items", len(c)))
	})

	// --- Router ---
	r := mux.NewRouter()
	handler.NewHandler(cart, feed, log).RegisterRoutes(r)

	// --- Server ---
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", cfg.HTTPAddr), slog.Int("cart_items", len(cart.Cart())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
