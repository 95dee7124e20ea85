package main

import (
	"context"
	"net/http"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/interactive-solutions/go-mailform"
	"github.com/interactive-solutions/go-mailform/internal/config"
)

func newServeCommand(rt *runtimeState) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, rt, open)
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the web interface in the default browser")

	return cmd
}

func serve(ctx context.Context, rt *runtimeState, open bool) error {
	repo, closeRepo, err := config.NewTemplateRepository(rt.cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	options := []mailform.AppOption{
		mailform.SetLogger(rt.logger),
		mailform.SetTemplateRepo(repo),
	}

	transport, err := config.NewEmailTransport(rt.cfg, rt.logger)
	switch {
	case err == nil:
		options = append(options, mailform.SetEmailTransport(transport))
	case !errors.Is(err, mailform.ErrMailTransportNotConfigured):
		return err
	}

	if rt.cfg.SessionSecret != "" {
		options = append(options, mailform.SetSessionStore(sessions.NewCookieStore([]byte(rt.cfg.SessionSecret))))
	}

	app, err := mailform.NewApplication(options...)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + rt.cfg.Port,
		Handler:           app.HttpHandler().Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	address := "http://localhost:" + rt.cfg.Port
	rt.logger.WithField("address", address).Info("mailform listening")

	if open {
		if err := openBrowser(address); err != nil {
			rt.logger.WithError(err).Warn("failed to open browser")
		}
	}

	select {
	case err := <-errs:
		return errors.Wrap(err, "server stopped")

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rt.logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

func openBrowser(address string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", address).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", address).Start()
	default:
		return exec.Command("xdg-open", address).Start()
	}
}
