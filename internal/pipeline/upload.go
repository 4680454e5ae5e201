package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/internal/metrics"
	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

var supportedExtensions = []string{".gif", ".png", ".jpg", ".jpeg", ".mp4", ".zip"}

// IsSupportedFile reports whether an attachment name has an extension
// Adpiler accepts as a creative.
func IsSupportedFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

type ListSource interface {
	GetListCards(ctx context.Context, listID string) ([]models.Card, error)
	AddComment(ctx context.Context, cardID, text string) error
}

type CreativePublisher interface {
	CreateCreative(ctx context.Context, creative models.CreativeRequest) (json.RawMessage, error)
}

type RunLogWriter interface {
	Write(ctx context.Context, entries []models.UploadLogEntry) error
}

// Uploader sends supported attachments of every card in a list to Adpiler.
type Uploader struct {
	Trello     ListSource
	Adpiler    CreativePublisher
	Log        RunLogWriter
	History    Recorder
	ListID     string
	ClientID   string
	CampaignID string
	RunID      string
}

// Run processes the list and writes the run log. A failure fetching the list
// aborts before anything is written; the run log is written even when ctx is
// cancelled mid-run.
func (u *Uploader) Run(ctx context.Context) ([]models.UploadLogEntry, error) {
	cards, err := u.Trello.GetListCards(ctx, u.ListID)
	if err != nil {
		return nil, err
	}

	entries := []models.UploadLogEntry{}
	var runErr error
cards:
	for _, card := range cards {
		if len(card.Attachments) == 0 {
			continue
		}
		for _, att := range card.Attachments {
			if runErr = ctx.Err(); runErr != nil {
				break cards
			}
			if !IsSupportedFile(att.Name) {
				continue
			}
			entries = append(entries, u.uploadAttachment(ctx, card, att))
		}
	}

	// the log is written with a fresh context so a cancelled run still leaves it behind
	if err := u.Log.Write(context.WithoutCancel(ctx), entries); err != nil {
		return entries, err
	}
	return entries, runErr
}

// uploadAttachment publishes the creative, then comments on the card. The
// two steps fail separately: a comment failure after a successful publish
// is logged as notify_failure.
func (u *Uploader) uploadAttachment(ctx context.Context, card models.Card, att models.Attachment) models.UploadLogEntry {
	log := zap.L().With(zap.String("cardID", card.ID), zap.String("file", att.Name))
	entry := models.UploadLogEntry{Card: card.Name, File: att.Name}

	result, err := u.Adpiler.CreateCreative(ctx, models.CreativeRequest{
		Title:        card.Name,
		Platform:     models.CreativeAuto,
		ClientID:     u.ClientID,
		CampaignID:   u.CampaignID,
		CreativeType: models.CreativeAuto,
		CreativeURL:  att.URL,
	})
	if err != nil {
		log.Error("Creative upload failed", zap.Error(err))
		entry.Status = models.UploadFailure
		entry.Error = err.Error()
		u.record(ctx, card, entry)
		return entry
	}
	entry.Result = result

	if err := u.Trello.AddComment(ctx, card.ID, fmt.Sprintf("Uploaded %s to AdPiler.", att.Name)); err != nil {
		log.Warn("Creative uploaded but card comment failed", zap.Error(err))
		entry.Status = models.UploadNotifyFailure
		entry.Error = err.Error()
		u.record(ctx, card, entry)
		return entry
	}

	log.Info("Uploaded creative")
	entry.Status = models.UploadSuccess
	u.record(ctx, card, entry)
	return entry
}

func (u *Uploader) record(ctx context.Context, card models.Card, entry models.UploadLogEntry) {
	metrics.AttachmentsTotal.WithLabelValues(string(entry.Status)).Inc()
	if u.History != nil {
		u.History.RecordUpload(ctx, models.UploadRecord{
			RunID:    u.RunID,
			CardID:   card.ID,
			CardName: card.Name,
			File:     entry.File,
			Status:   entry.Status,
			Detail:   entry.Error,
		})
	}
}
