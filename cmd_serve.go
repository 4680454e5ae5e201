package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sync cards as Trello webhooks arrive",
	Long: `Start an HTTP server for Trello webhooks, register a webhook on every
configured board, and sync each changed card. Webhooks are deleted again
on shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	d, err := newDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	queue := api.NewSyncQueue(newSyncer(d), cfg.Server.QueueSize)
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()
	queue.Start(workerCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewRouter(logger, &api.Handler{Queue: queue}),
	}

	serveErr := make(chan error, 1)
	zap.L().Info("Starting server", zap.String("port", cfg.Server.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Give the server a moment to start before Trello verifies the callback
	time.Sleep(250 * time.Millisecond)

	zap.L().Info("Registering Trello webhook for boards", zap.Strings("boardIDs", cfg.Trello.BoardIDs))
	webhookIDs := make(map[string]string)
	for _, boardID := range cfg.Trello.BoardIDs {
		webhookID, err := d.trello.RegisterWebhook(ctx, boardID)
		if err != nil {
			zap.L().Error("Failed to register webhook on startup for board", zap.String("boardID", boardID), zap.Error(err))
			shutdown(srv, queue, stopWorker, d.trello, webhookIDs)
			return err
		}
		webhookIDs[boardID] = webhookID
	}

	select {
	case <-ctx.Done():
		zap.L().Info("Shutdown initiated", zap.String("reason", context.Cause(ctx).Error()))
	case err := <-serveErr:
		if err != nil {
			shutdown(srv, queue, stopWorker, d.trello, webhookIDs)
			return err
		}
	}

	shutdown(srv, queue, stopWorker, d.trello, webhookIDs)
	zap.L().Info("Exiting...")
	return nil
}

// shutdownTimeout bounds each shutdown step separately.
var shutdownTimeout = 10 * time.Second

type webhookDeleter interface {
	DeleteWebhook(ctx context.Context, webhookID string) error
}

func shutdown(srv *http.Server, queue *api.SyncQueue, stopWorker context.CancelFunc, trello webhookDeleter, webhookIDs map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	zap.L().Info("Shutting down HTTP server...")
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("Error shutting down server", zap.Error(err))
	} else {
		zap.L().Info("HTTP server shut down gracefully.")
	}

	// cancel in-flight syncs; queued cards then fail fast and the worker exits
	stopWorker()
	queue.Close()

	deleteCtx, cancelDelete := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelDelete()

	for boardID, webhookID := range webhookIDs {
		if err := trello.DeleteWebhook(deleteCtx, webhookID); err != nil {
			zap.L().Error("Error deleting webhook for board", zap.String("boardID", boardID), zap.Error(err))
		} else {
			zap.L().Info("Successfully deleted webhook for board", zap.String("boardID", boardID))
		}
	}
}
