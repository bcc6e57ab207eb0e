// Command catalog-sandbox serves a seeded in-memory catalog with the same
// routes the cart expects from the real one.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"shopping-cart/catalog"
	"shopping-cart/logger"
	"shopping-cart/shutdown"
)

func main() {
	addr := flag.String("addr", ":3333", "listen address")
	seedPath := flag.String("seed", "server.json", "YAML or JSON seed with products and stock")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.New(logger.Options{Service: "catalog-sandbox", Env: "dev", Level: *level})

	seed, err := catalog.LoadSeed(*seedPath)
	if err != nil {
		log.Error("load seed", slog.Any("err", err))
		os.Exit(1)
	}
	sb := catalog.NewSandbox(seed)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	server := &http.Server{
		Addr:              *addr,
		Handler:           sb.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("catalog sandbox listening",
			slog.String("addr", *addr),
			slog.Int("products", len(seed.Products)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("catalog sandbox stopped", slog.Any("err", err))
		os.Exit(1)
	}
}
