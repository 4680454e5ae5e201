package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chxlky/trello-adpiler-sync/internal/artifacts"
	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

func TestIsSupportedFile(t *testing.T) {
	for name, want := range map[string]bool{
		"banner.gif":   true,
		"BANNER.PNG":   true,
		"photo.jpg":    true,
		"photo.JPEG":   true,
		"spot.mp4":     true,
		"html5.zip":    true,
		"banner.svg":   false,
		"brief.pdf":    false,
		"gif":          false,
		"banner.gif.x": false,
		"":             false,
	} {
		assert.Equal(t, want, IsSupportedFile(name), name)
	}
}

type uploadFixture struct {
	fs       afero.Fs
	trello   *fakeTrello
	adpiler  *fakeAdpiler
	history  *fakeRecorder
	uploader *Uploader
}

func newUploadFixture(cards ...models.Card) *uploadFixture {
	f := &uploadFixture{
		fs:      afero.NewMemMapFs(),
		trello:  &fakeTrello{cards: cards},
		adpiler: &fakeAdpiler{},
		history: &fakeRecorder{},
	}
	f.uploader = &Uploader{
		Trello:     f.trello,
		Adpiler:    f.adpiler,
		Log:        artifacts.NewLogWriter(f.fs, "upload-log.json", nil),
		History:    f.history,
		ListID:     "list1",
		ClientID:   "client1",
		CampaignID: "camp1",
		RunID:      "run1",
	}
	return f
}

func withAttachments(c models.Card, names ...string) models.Card {
	for _, n := range names {
		c.Attachments = append(c.Attachments, models.Attachment{Name: n, URL: "https://cdn.example/" + n})
	}
	return c
}

func (f *uploadFixture) readLog(t *testing.T) []models.UploadLogEntry {
	t.Helper()
	data, err := afero.ReadFile(f.fs, "upload-log.json")
	require.NoError(t, err)
	var entries []models.UploadLogEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestUploader_GifSuccess(t *testing.T) {
	f := newUploadFixture(withAttachments(models.Card{ID: "c1", Name: "Spring"}, "banner.gif"))

	entries, err := f.uploader.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.UploadSuccess, entries[0].Status)
	assert.JSONEq(t, `{"id":"cr1"}`, string(entries[0].Result))

	require.Len(t, f.adpiler.creatives, 1)
	assert.Equal(t, models.CreativeRequest{
		Title: "Spring", Platform: "auto", ClientID: "client1", CampaignID: "camp1",
		CreativeType: "auto", CreativeURL: "https://cdn.example/banner.gif",
	}, f.adpiler.creatives[0])
	assert.Equal(t, []string{"c1: Uploaded banner.gif to AdPiler."}, f.trello.comments)

	logged := f.readLog(t)
	require.Len(t, logged, 1)
	assert.Equal(t, "Spring", logged[0].Card)
	assert.Equal(t, "banner.gif", logged[0].File)
	assert.Equal(t, models.UploadSuccess, logged[0].Status)
	assert.Equal(t, []string{"list:list1"}, f.trello.asked)
}

func TestUploader_SkipsUnsupportedAndEmpty(t *testing.T) {
	f := newUploadFixture(
		withAttachments(models.Card{ID: "c1", Name: "Svg"}, "banner.svg"),
		models.Card{ID: "c2", Name: "Empty"},
		withAttachments(models.Card{ID: "c3", Name: "Mixed"}, "brief.pdf", "SPOT.MP4"),
	)

	entries, err := f.uploader.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SPOT.MP4", entries[0].File)
	require.Len(t, f.adpiler.creatives, 1)
	assert.Len(t, f.readLog(t), 1)
}

func TestUploader_PublishFailure(t *testing.T) {
	f := newUploadFixture(withAttachments(models.Card{ID: "c1", Name: "Spring"}, "a.png", "b.zip"))
	f.adpiler.err = errors.New("422 invalid url")

	entries, err := f.uploader.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, models.UploadFailure, e.Status)
		assert.Equal(t, "422 invalid url", e.Error)
		assert.Nil(t, e.Result)
	}
	assert.Empty(t, f.trello.comments)
	require.Len(t, f.history.uploads, 2)
	assert.Equal(t, models.UploadFailure, f.history.uploads[1].Status)
}

func TestUploader_CommentFailureIsDistinct(t *testing.T) {
	f := newUploadFixture(withAttachments(models.Card{ID: "c1", Name: "Spring"}, "a.jpg"))
	f.trello.commErr = errors.New("comment rejected")

	entries, err := f.uploader.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.UploadNotifyFailure, entries[0].Status)
	assert.Equal(t, "comment rejected", entries[0].Error)
	assert.NotNil(t, entries[0].Result)
	assert.Len(t, f.adpiler.creatives, 1)
}

func TestUploader_FetchFailureWritesNothing(t *testing.T) {
	f := newUploadFixture()
	f.trello.err = errors.New("list not found")

	_, err := f.uploader.Run(context.Background())
	assert.EqualError(t, err, "list not found")

	exists, _ := afero.Exists(f.fs, "upload-log.json")
	assert.False(t, exists)
}

func TestUploader_ReplacesPriorLog(t *testing.T) {
	f := newUploadFixture()
	require.NoError(t, afero.WriteFile(f.fs, "upload-log.json", []byte(`[{"card":"old"}]`), 0o644))

	_, err := f.uploader.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.readLog(t))
}

func TestUploader_CancelledStillWritesLog(t *testing.T) {
	f := newUploadFixture(withAttachments(models.Card{ID: "c1", Name: "Spring"}, "a.gif"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uploader.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.adpiler.creatives)
	assert.Empty(t, f.readLog(t))
}
