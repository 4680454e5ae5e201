package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/integrations"
	"github.com/chxlky/trello-adpiler-sync/internal/campaign"
	"github.com/chxlky/trello-adpiler-sync/internal/metrics"
	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

type CardSource interface {
	GetCard(ctx context.Context, cardID string) (models.Card, error)
	GetBoardCards(ctx context.Context, boardID string) ([]models.Card, error)
}

type CampaignPublisher interface {
	CreateCampaign(ctx context.Context, campaign models.CampaignRequest) (json.RawMessage, error)
}

type ArtifactWriter interface {
	WriteCard(ctx context.Context, client string, artifact models.CardArtifact) (string, error)
}

// Recorder persists per-item outcomes. Implementations must not fail the run.
type Recorder interface {
	RecordSync(ctx context.Context, rec models.SyncRecord)
	RecordUpload(ctx context.Context, rec models.UploadRecord)
}

// Syncer turns labelled cards into client artifacts and Adpiler campaigns.
type Syncer struct {
	Trello    CardSource
	Adpiler   CampaignPublisher
	Artifacts ArtifactWriter
	History   Recorder
	BoardID   string
	RunID     string
}

type SyncSummary struct {
	Published     int
	PublishFailed int
	Skipped       int
}

// Run syncs the single card cardID, or every card on the board when cardID
// is empty. Only a failure to fetch the cards is returned; per-card problems
// are logged and counted.
func (s *Syncer) Run(ctx context.Context, cardID string) (SyncSummary, error) {
	cards, err := s.fetch(ctx, cardID)
	if err != nil {
		return SyncSummary{}, err
	}

	var sum SyncSummary
	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		switch s.SyncCard(ctx, card) {
		case models.SyncPublished:
			sum.Published++
		case models.SyncPublishFailed:
			sum.PublishFailed++
		default:
			sum.Skipped++
		}
	}
	return sum, nil
}

func (s *Syncer) fetch(ctx context.Context, cardID string) ([]models.Card, error) {
	if cardID != "" {
		card, err := s.Trello.GetCard(ctx, cardID)
		if err != nil {
			return nil, err
		}
		return []models.Card{card}, nil
	}
	return s.Trello.GetBoardCards(ctx, s.BoardID)
}

// SyncCard processes one card. The artifact is written before the campaign
// is published, so a publish failure leaves the artifact in place.
func (s *Syncer) SyncCard(ctx context.Context, card models.Card) models.SyncOutcome {
	log := zap.L().With(zap.String("cardID", card.ID))
	labels := card.LabelNames()

	match, err := campaign.Resolve(labels)
	if err != nil {
		log.Warn("Skipping card: no matching label", zap.Strings("labels", labels))
		return s.skip(ctx, card, "", err)
	}
	if match.Ambiguous() {
		log.Warn("Card has several campaign labels, using the first",
			zap.String("label", match.Label), zap.Strings("matches", match.All))
	}

	client, err := campaign.ClientName(card.CustomFieldItems)
	if err != nil {
		if errors.Is(err, campaign.ErrInvalidClient) {
			log.Warn("Skipping card: unusable Client field", zap.Error(err))
		} else {
			log.Warn("Skipping card: no Client field")
		}
		return s.skip(ctx, card, "", err)
	}
	log = log.With(zap.String("client", client))

	file, err := s.Artifacts.WriteCard(ctx, client, models.CardArtifact{
		ID:        card.ID,
		Name:      card.Name,
		Desc:      card.Desc,
		URL:       card.URL,
		UTMSource: match.UTM.Source,
		UTMMedium: match.UTM.Medium,
		Labels:    labels,
	})
	if err != nil {
		log.Error("Skipping card: could not write artifact", zap.Error(err))
		return s.skip(ctx, card, client, err)
	}
	log.Debug("Wrote card artifact", zap.String("file", file))

	rec := models.SyncRecord{
		RunID:     s.RunID,
		CardID:    card.ID,
		CardName:  card.Name,
		Client:    client,
		UTMSource: match.UTM.Source,
		UTMMedium: match.UTM.Medium,
		Outcome:   models.SyncPublished,
	}

	_, err = s.Adpiler.CreateCampaign(ctx, models.CampaignRequest{
		Name:      card.Name,
		Content:   card.Desc,
		UTMSource: match.UTM.Source,
		UTMMedium: match.UTM.Medium,
	})
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		var apiErr *integrations.APIError
		if errors.As(err, &apiErr) {
			fields = append(fields, zap.Int("status", apiErr.StatusCode), zap.String("response", apiErr.Body))
		}
		log.Error("Adpiler error for card", fields...)
		rec.Outcome = models.SyncPublishFailed
		rec.Detail = err.Error()
	} else {
		log.Info("Published campaign", zap.String("utmSource", match.UTM.Source), zap.String("utmMedium", match.UTM.Medium))
	}

	s.record(ctx, rec)
	return rec.Outcome
}

func (s *Syncer) skip(ctx context.Context, card models.Card, client string, reason error) models.SyncOutcome {
	s.record(ctx, models.SyncRecord{
		RunID:    s.RunID,
		CardID:   card.ID,
		CardName: card.Name,
		Client:   client,
		Outcome:  models.SyncSkipped,
		Detail:   fmt.Sprint(reason),
	})
	return models.SyncSkipped
}

func (s *Syncer) record(ctx context.Context, rec models.SyncRecord) {
	metrics.CardsTotal.WithLabelValues(string(rec.Outcome)).Inc()
	if s.History != nil {
		s.History.RecordSync(ctx, rec)
	}
}
