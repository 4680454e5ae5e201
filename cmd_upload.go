package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/internal/artifacts"
	"github.com/chxlky/trello-adpiler-sync/internal/models"
	"github.com/chxlky/trello-adpiler-sync/internal/pipeline"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload creative attachments from the approval list to Adpiler",
	Long: `Upload every gif, png, jpg, jpeg, mp4 and zip attachment on the cards of the
configured list as an Adpiler creative, comment on the card, and write the
run log to output.upload_log.

A failed run is logged but does not change the exit status.`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := cfg.ValidateUpload(); err != nil {
		return err
	}

	d, err := newDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	uploader := &pipeline.Uploader{
		Trello:     d.trello,
		Adpiler:    d.adpiler,
		Log:        artifacts.NewLogWriter(d.fs, cfg.Output.UploadLog, d.mirror),
		History:    d.history,
		ListID:     cfg.Trello.ListID,
		ClientID:   cfg.Adpiler.ClientID,
		CampaignID: cfg.Adpiler.CampaignID,
		RunID:      d.runID,
	}

	entries, err := uploader.Run(ctx)
	pushMetrics(ctx, cfg, "adpiler_upload")
	if err != nil {
		zap.L().Error("Upload run failed", zap.String("runID", d.runID), zap.Error(err))
		return nil
	}

	counts := map[models.UploadStatus]int{}
	for _, e := range entries {
		counts[e.Status]++
	}
	zap.L().Info("Upload complete. Log written.", zap.String("log", cfg.Output.UploadLog),
		zap.Int("uploaded", counts[models.UploadSuccess]),
		zap.Int("failed", counts[models.UploadFailure]),
		zap.Int("notifyFailed", counts[models.UploadNotifyFailure]))
	return nil
}
