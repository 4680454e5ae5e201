package database

import (
	"context"

	"github.com/chxlky/trello-adpiler-sync/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// History keeps a row per sync outcome and per upload attempt. A nil
// *History records nothing. Write failures are logged and swallowed so the
// store never decides whether a run succeeds.
type History struct {
	db *gorm.DB
}

func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

func (h *History) RecordSync(ctx context.Context, rec models.SyncRecord) {
	if h == nil {
		return
	}
	if err := h.db.WithContext(ctx).Create(&rec).Error; err != nil {
		zap.L().Warn("Failed to record sync history", zap.String("cardID", rec.CardID), zap.Error(err))
	}
}

func (h *History) RecordUpload(ctx context.Context, rec models.UploadRecord) {
	if h == nil {
		return
	}
	if err := h.db.WithContext(ctx).Create(&rec).Error; err != nil {
		zap.L().Warn("Failed to record upload history", zap.String("cardID", rec.CardID), zap.Error(err))
	}
}

// SyncRecords returns the rows written for a run, oldest first.
func (h *History) SyncRecords(ctx context.Context, runID string) ([]models.SyncRecord, error) {
	var recs []models.SyncRecord
	err := h.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&recs).Error
	return recs, err
}

// UploadRecords returns the rows written for a run, oldest first.
func (h *History) UploadRecords(ctx context.Context, runID string) ([]models.UploadRecord, error) {
	var recs []models.UploadRecord
	err := h.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&recs).Error
	return recs, err
}

func (h *History) Close() error {
	if h == nil {
		return nil
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
