package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cienet/speakctl/internal/observability"
	"github.com/cienet/speakctl/internal/server"
	"github.com/cienet/speakctl/tts"
	"github.com/cienet/speakctl/tts/sinks"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve the session over HTTP",
	Long:    paragraph(fmt.Sprintf("\n%s the session commands over HTTP, events over a websocket and metrics for Prometheus.", keyword("Serve"))),
	Example: paragraph("speakctl serve --addr :8080"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := log.Default().WithPrefix("serve")
		metrics := observability.NewMetrics()
		hub := server.NewHub(logger)

		c := newSession(tts.WithOutcomeHook(metrics.ObserveOutcome))
		sink := metrics.Sink(sinks.Tee(hub, sinks.Log(log.Default().WithPrefix("event"))))
		if err := initSession(c, sink); err != nil {
			return err
		}
		defer release(c)

		srv := &http.Server{
			Addr:              viper.GetString("serve.addr"),
			Handler:           server.New(c, hub, metrics.Handler(), logger).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			logger.Info("Listening", "addr", srv.Addr)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			hub.Close()
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("unable to serve: %w", err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("unable to shut down: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config serve.addr)")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}
