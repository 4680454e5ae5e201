package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/internal/artifacts"
	"github.com/chxlky/trello-adpiler-sync/internal/pipeline"
)

var syncCmd = &cobra.Command{
	Use:   "sync [cardID]",
	Short: "Sync card labels and Client field into Adpiler campaigns",
	Long: `Fetch one card, or every card on the configured board, and for each card
with a campaign label and a Client custom field:
1. Write clients/<Client>/<cardID>.json
2. Create the matching Adpiler campaign`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cardID := ""
	if len(args) == 1 {
		cardID = args[0]
	}
	if err := cfg.ValidateSync(cardID != ""); err != nil {
		return err
	}

	d, err := newDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	syncer := newSyncer(d)
	sum, err := syncer.Run(ctx, cardID)
	pushMetrics(ctx, cfg, "adpiler_sync")
	if err != nil {
		return err
	}

	zap.L().Info("Sync complete", zap.String("runID", d.runID),
		zap.Int("published", sum.Published), zap.Int("publishFailed", sum.PublishFailed), zap.Int("skipped", sum.Skipped))
	return nil
}

func newSyncer(d *deps) *pipeline.Syncer {
	return &pipeline.Syncer{
		Trello:    d.trello,
		Adpiler:   d.adpiler,
		Artifacts: artifacts.NewWriter(d.fs, cfg.Output.ClientsDir, d.mirror),
		History:   d.history,
		BoardID:   cfg.Trello.BoardID,
		RunID:     d.runID,
	}
}
