// Command devserver serves the wasm demo directory (index.html, main.wasm,
// wasm_exec.js) for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var (
	dirFlag = &cli.StringFlag{
		Name:  "dir",
		Usage: "directory holding index.html, main.wasm and wasm_exec.js",
		Value: filepath.Join("cmd", "wasm-demo"),
	}
	addrFlag = &cli.StringFlag{
		Name:  "addr",
		Usage: "listen address",
		Value: ":8080",
	}
	corsFlag = &cli.StringSliceFlag{
		Name:  "cors",
		Usage: "allowed CORS origins, none when empty",
	}
)

func main() {
	app := &cli.App{
		Name:   "devserver",
		Usage:  "serve the glroom wasm demo",
		Flags:  []cli.Flag{dirFlag, addrFlag, corsFlag},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	dir := c.String(dirFlag.Name)
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		return fmt.Errorf("devserver: %w", err)
	}

	srv := &http.Server{
		Addr:              c.String(addrFlag.Name),
		Handler:           newHandler(dir, c.StringSlice(corsFlag.Name), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving", slog.String("addr", srv.Addr), slog.String("dir", dir))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newHandler(dir string, origins []string, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	files := http.FileServer(http.Dir(dir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})

	var h http.Handler = mux
	if len(origins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			MaxAge:         600,
		}).Handler(h)
	}
	return logRequests(h, log)
}

func logRequests(h http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		h.ServeHTTP(w, r)
	})
}
