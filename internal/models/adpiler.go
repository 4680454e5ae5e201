package models

import "encoding/json"

// CreativeAuto lets Adpiler detect the platform and creative type itself.
const CreativeAuto = "auto"

type CampaignRequest struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	UTMSource string `json:"utm_source"`
	UTMMedium string `json:"utm_medium"`
}

type CreativeRequest struct {
	Title        string `json:"title"`
	Platform     string `json:"platform"`
	ClientID     string `json:"client_id"`
	CampaignID   string `json:"campaign_id"`
	CreativeType string `json:"creative_type"`
	CreativeURL  string `json:"creative_url"`
}

type UploadStatus string

const (
	UploadSuccess       UploadStatus = "success"
	UploadFailure       UploadStatus = "failure"
	UploadNotifyFailure UploadStatus = "notify_failure"
)

// UploadLogEntry records one attempted attachment upload.
type UploadLogEntry struct {
	Card   string          `json:"card"`
	File   string          `json:"file"`
	Status UploadStatus    `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
