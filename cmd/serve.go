package cmd

import (
	"context"
	"errors"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcx-labs/rcxsale-go/contract"
	"github.com/rcx-labs/rcxsale-go/http"
	"github.com/rcx-labs/rcxsale-go/session"
)

func newServeCmd(a *app) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sale over a JSON API",
		Long:  "Serve sale snapshots, quotes and purchases over HTTP. Without a configured wallet key the purchase endpoints answer 503 and the server is read-only.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if listenAddr == "" {
				listenAddr = a.cfg.ListenAddr
			}

			var (
				handles   *contract.Handles
				purchases http.PurchaseAPI
				sessions  *session.Manager
			)
			if a.cfg.Key.Set() {
				var err error
				sessions, handles, err = a.connected(ctx, true)
				if err != nil {
					return err
				}
				defer sessions.Disconnect()
				purchases = a.orchestrator(sessions, handles, true)
			} else {
				var err error
				handles, err = contract.Dial(ctx, a.chain, nil, contract.WithReadTimeout(a.cfg.ReadTimeout))
				if err != nil {
					return err
				}
			}
			defer handles.Close()

			agg := contract.NewAggregator(handles, a.log)
			srv := http.NewServer(listenAddr, agg, purchases, handles, a.log)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				if errors.Is(err, nethttp.ErrServerClosed) {
					return nil
				}
				return err
			case <-sigCtx.Done():
				a.log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "bind address (defaults to listen_addr from config)")
	return cmd
}
