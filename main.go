package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/config"
	"github.com/nixxel-company-limited/escpos-printkit/dispatch"
	"github.com/nixxel-company-limited/escpos-printkit/server"
)

const usage = `usage:
  escpos-printkit [flags] [serve]      run the TCP (and optional WebSocket) job server
  escpos-printkit [flags] print <job>  run one job file (YAML or JSON)`

func main() {
	cfg, args, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	d := dispatch.NewWithLogger(logger,
		dispatch.WithCodePage(cfg.CodePage),
		dispatch.WithAdapterOptions(cfg.AdapterOptions()...),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch {
	case cmd == "serve" && len(args) <= 1:
		err = serve(ctx, cfg, d, logger)
	case cmd == "print" && len(args) == 2:
		err = printJob(ctx, d, args[1])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("exiting", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, d *dispatch.Dispatcher, logger *zap.Logger) error {
	svr := server.NewWithLogger(d, cfg.ServerAddress, logger)
	if err := svr.StartAsync(); err != nil {
		return err
	}
	defer svr.Stop()

	errCh := make(chan error, 1)
	var httpSrv *http.Server
	if cfg.WSAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", svr.WSHandler())
		httpSrv = &http.Server{Addr: cfg.WSAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go func() {
			logger.Info("websocket listening", zap.String("address", cfg.WSAddress))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("websocket server: %w", err)
	}

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func printJob(ctx context.Context, d *dispatch.Dispatcher, path string) error {
	job, err := dispatch.LoadJob(path)
	if err != nil {
		return err
	}

	res := d.RunJob(ctx, job)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Delivered() {
		return fmt.Errorf("job %s: %w", path, res.Err)
	}
	return nil
}
