package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chxlky/trello-adpiler-sync/internal/artifacts"
	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

type fakeTrello struct {
	cards    []models.Card
	err      error
	asked    []string
	comments []string
	commErr  error
}

func (f *fakeTrello) GetCard(_ context.Context, id string) (models.Card, error) {
	f.asked = append(f.asked, "card:"+id)
	if f.err != nil {
		return models.Card{}, f.err
	}
	for _, c := range f.cards {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Card{}, errors.New("not found")
}

func (f *fakeTrello) GetBoardCards(_ context.Context, boardID string) ([]models.Card, error) {
	f.asked = append(f.asked, "board:"+boardID)
	return f.cards, f.err
}

func (f *fakeTrello) GetListCards(_ context.Context, listID string) ([]models.Card, error) {
	f.asked = append(f.asked, "list:"+listID)
	return f.cards, f.err
}

func (f *fakeTrello) AddComment(_ context.Context, cardID, text string) error {
	f.comments = append(f.comments, cardID+": "+text)
	return f.commErr
}

type fakeAdpiler struct {
	campaigns []models.CampaignRequest
	creatives []models.CreativeRequest
	err       error
}

func (f *fakeAdpiler) CreateCampaign(_ context.Context, c models.CampaignRequest) (json.RawMessage, error) {
	f.campaigns = append(f.campaigns, c)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"id":1}`), nil
}

func (f *fakeAdpiler) CreateCreative(_ context.Context, c models.CreativeRequest) (json.RawMessage, error) {
	f.creatives = append(f.creatives, c)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"id":"cr1"}`), nil
}

type fakeRecorder struct {
	syncs   []models.SyncRecord
	uploads []models.UploadRecord
}

func (f *fakeRecorder) RecordSync(_ context.Context, rec models.SyncRecord)     { f.syncs = append(f.syncs, rec) }
func (f *fakeRecorder) RecordUpload(_ context.Context, rec models.UploadRecord) { f.uploads = append(f.uploads, rec) }

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func card(id string, labels []string, client string) models.Card {
	c := models.Card{ID: id, Name: "Card " + id, Desc: "desc " + id, URL: "https://trello.com/c/" + id}
	for _, l := range labels {
		c.Labels = append(c.Labels, models.Label{Name: l})
	}
	if client != "" {
		c.CustomFieldItems = []models.CustomFieldItem{{Name: "Client", Value: models.CustomFieldValue{Text: client}}}
	}
	return c
}

type syncFixture struct {
	fs      afero.Fs
	trello  *fakeTrello
	adpiler *fakeAdpiler
	history *fakeRecorder
	syncer  *Syncer
}

func newSyncFixture(cards ...models.Card) *syncFixture {
	f := &syncFixture{
		fs:      afero.NewMemMapFs(),
		trello:  &fakeTrello{cards: cards},
		adpiler: &fakeAdpiler{},
		history: &fakeRecorder{},
	}
	f.syncer = &Syncer{
		Trello:    f.trello,
		Adpiler:   f.adpiler,
		Artifacts: artifacts.NewWriter(f.fs, "clients", nil),
		History:   f.history,
		BoardID:   "board1",
		RunID:     "run1",
	}
	return f
}

func TestSyncer_FacebookCard(t *testing.T) {
	f := newSyncFixture(card("c1", []string{"Facebook", "Q1"}, "Acme"))

	sum, err := f.syncer.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, SyncSummary{Published: 1}, sum)
	assert.Equal(t, []string{"board:board1"}, f.trello.asked)

	data, err := afero.ReadFile(f.fs, "clients/Acme/c1.json")
	require.NoError(t, err)
	var got models.CardArtifact
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "FTE", got.UTMSource)
	assert.Equal(t, "facebook", got.UTMMedium)
	assert.Equal(t, []string{"facebook", "q1"}, got.Labels)

	require.Len(t, f.adpiler.campaigns, 1)
	assert.Equal(t, models.CampaignRequest{Name: "Card c1", Content: "desc c1", UTMSource: "FTE", UTMMedium: "facebook"}, f.adpiler.campaigns[0])

	require.Len(t, f.history.syncs, 1)
	assert.Equal(t, models.SyncPublished, f.history.syncs[0].Outcome)
	assert.Equal(t, "run1", f.history.syncs[0].RunID)
}

func TestSyncer_SingleCard(t *testing.T) {
	f := newSyncFixture(card("c1", []string{"display"}, "Acme"), card("c2", []string{"audio"}, "Beta"))

	sum, err := f.syncer.Run(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, SyncSummary{Published: 1}, sum)
	assert.Equal(t, []string{"card:c2"}, f.trello.asked)

	exists, _ := afero.Exists(f.fs, "clients/Beta/c2.json")
	assert.True(t, exists)
	exists, _ = afero.Exists(f.fs, "clients/Acme/c1.json")
	assert.False(t, exists)
}

func TestSyncer_NoMatchingLabel(t *testing.T) {
	logs := observeLogs(t)
	f := newSyncFixture(card("c1", []string{"urgent"}, "Acme"))

	sum, err := f.syncer.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, SyncSummary{Skipped: 1}, sum)
	assert.Empty(t, f.adpiler.campaigns)

	exists, _ := afero.DirExists(f.fs, "clients")
	assert.False(t, exists)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("Skipping card: no matching label")
	assert.Equal(t, 1, warns.Len())
}

func TestSyncer_MissingOrInvalidClient(t *testing.T) {
	logs := observeLogs(t)
	f := newSyncFixture(
		card("c1", []string{"tiktok"}, ""),
		card("c2", []string{"tiktok"}, "../escape"),
	)

	sum, err := f.syncer.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, SyncSummary{Skipped: 2}, sum)
	assert.Empty(t, f.adpiler.campaigns)

	exists, _ := afero.DirExists(f.fs, "clients")
	assert.False(t, exists)
	exists, _ = afero.Exists(f.fs, "escape/c2.json")
	assert.False(t, exists)

	assert.Equal(t, 1, logs.FilterMessage("Skipping card: no Client field").Len())
	assert.Equal(t, 1, logs.FilterMessage("Skipping card: unusable Client field").Len())
}

func TestSyncer_AmbiguousLabelsWarn(t *testing.T) {
	logs := observeLogs(t)
	f := newSyncFixture(card("c1", []string{"TikTok", "Facebook"}, "Acme"))

	_, err := f.syncer.Run(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, f.adpiler.campaigns, 1)
	assert.Equal(t, "tiktok", f.adpiler.campaigns[0].UTMMedium)
	assert.Equal(t, 1, logs.FilterMessage("Card has several campaign labels, using the first").Len())
}

func TestSyncer_PublishFailureKeepsArtifactAndContinues(t *testing.T) {
	f := newSyncFixture(card("c1", []string{"audio"}, "Acme"), card("c2", []string{"display"}, "Acme"))
	f.adpiler.err = errors.New("adpiler down")

	sum, err := f.syncer.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, SyncSummary{PublishFailed: 2}, sum)
	assert.Len(t, f.adpiler.campaigns, 2)

	for _, file := range []string{"clients/Acme/c1.json", "clients/Acme/c2.json"} {
		exists, _ := afero.Exists(f.fs, file)
		assert.True(t, exists, file)
	}
	require.Len(t, f.history.syncs, 2)
	assert.Equal(t, "adpiler down", f.history.syncs[0].Detail)
}

func TestSyncer_FetchFailureIsFatal(t *testing.T) {
	f := newSyncFixture()
	f.trello.err = errors.New("401 unauthorized")

	_, err := f.syncer.Run(context.Background(), "")
	assert.EqualError(t, err, "401 unauthorized")
	assert.Empty(t, f.adpiler.campaigns)
}

func TestSyncer_CancelledContext(t *testing.T) {
	f := newSyncFixture(card("c1", []string{"audio"}, "Acme"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.syncer.Run(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.adpiler.campaigns)
}
