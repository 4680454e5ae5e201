package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/database"
	"github.com/chxlky/trello-adpiler-sync/integrations"
	"github.com/chxlky/trello-adpiler-sync/internal/artifacts"
	"github.com/chxlky/trello-adpiler-sync/internal/config"
	"github.com/chxlky/trello-adpiler-sync/internal/metrics"
)

// deps holds the clients and stores shared by every subcommand.
type deps struct {
	runID   string
	trello  *integrations.TrelloClient
	adpiler *integrations.AdpilerClient
	history *database.History
	mirror  artifacts.Mirror
	fs      afero.Fs
}

func newDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	trello := integrations.NewTrelloClient(httpClient, cfg.Trello.BaseURL, cfg.Trello.APIKey, cfg.Trello.APIToken, cfg.Trello.CallbackURL)
	trello.PageSize = cfg.Trello.PageSize

	d := &deps{
		runID:   uuid.NewString(),
		trello:  trello,
		adpiler: integrations.NewAdpilerClient(httpClient, cfg.Adpiler.APIKey, cfg.Adpiler.CampaignsURL, cfg.Adpiler.CreativesURL),
		fs:      afero.NewOsFs(),
	}

	if cfg.Store.Path != "" {
		db, err := database.Init(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		d.history = database.NewHistory(db)
	}

	if cfg.S3.Enabled() {
		m, err := integrations.NewS3Mirror(ctx, cfg.S3)
		if err != nil {
			_ = d.history.Close()
			return nil, err
		}
		d.mirror = m
	}

	zap.L().Debug("Run initialised", zap.String("runID", d.runID),
		zap.Bool("history", d.history != nil), zap.Bool("mirror", d.mirror != nil))
	return d, nil
}

func (d *deps) close() {
	if err := d.history.Close(); err != nil {
		zap.L().Error("Error closing database", zap.Error(err))
	}
}

// pushTimeout bounds the metrics push at the end of a run.
const pushTimeout = 10 * time.Second

// pushMetrics sends run metrics to the Pushgateway when one is configured.
// It ignores cancellation of ctx so an interrupted run still reports.
func pushMetrics(ctx context.Context, cfg config.Config, job string) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := metrics.Push(ctx, cfg.Metrics.PushgatewayURL, job); err != nil {
		zap.L().Warn("Failed to push metrics", zap.Error(err))
	}
}
