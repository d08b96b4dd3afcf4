package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rflorenc/pipedrive-person-sync/internal/api"
	"github.com/rflorenc/pipedrive-person-sync/internal/mapping"
	"github.com/rflorenc/pipedrive-person-sync/internal/models"
	"github.com/rflorenc/pipedrive-person-sync/internal/personsync"
	"github.com/rflorenc/pipedrive-person-sync/internal/pipedrive"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP API that triggers syncs",
	Long: `Starts an HTTP server. POST /api/sync runs one sync as a background job;
job output can be polled at /api/jobs/{id} or streamed at /ws/jobs/{id}/logs.
Syncs run one at a time.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&opts.listen, "listen", "", "HTTP listen address (default :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	table, err := mapping.LoadTable(cfg.MappingFile)
	if err != nil {
		return err
	}
	if _, err := table.Identity(); err != nil {
		return err
	}

	server := &api.Server{
		Jobs:   models.NewJobStore(),
		Syncer: personsync.NewFromConfig(cfg, table, pipedrive.WithLogger(log)),
		LoadInput: func() (mapping.Document, error) {
			return mapping.LoadDocument(cfg.InputFile)
		},
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.NewRouter(server),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("personsync %s listening on %s", version, cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
		log.Info("Received interrupt signal. Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
