package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"relfiles/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start an HTTP server that answers related-file queries for editor
integrations.

Endpoints:
  GET /health
  GET /related?file=<path>&limit=<n>&session=<id>
  GET /similar?file=<path>&limit=<n>

Requests that share a session id supersede each other: asking about a new
file cancels the session's previous query.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default: server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := setupCommand()
	if err != nil {
		return err
	}
	defer env.close()

	addr := env.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	engine, err := env.engine()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(addr, engine, env.logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "relfiles HTTP API listening on http://%s\n", addr)
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			env.logger.Error("Server error", "error", err)
			return err
		}
	case sig := <-shutdown:
		env.logger.Info("Received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
	}

	return nil
}
