package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"time"

	"github.com/chxlky/trello-adpiler-sync/internal/metrics"
	"github.com/chxlky/trello-adpiler-sync/internal/models"
	"go.uber.org/zap"
)

const cardFields = "name,desc,labels,url,idBoard,idList"

type TrelloClient struct {
	Client      *http.Client
	BaseURL     string
	APIKey      string
	APIToken    string
	CallbackURL string
	// PageSize caps each card listing request; 0 fetches in one request.
	PageSize int
}

func NewTrelloClient(httpClient *http.Client, baseURL, key, token, callbackURL string) *TrelloClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &TrelloClient{
		Client:      httpClient,
		BaseURL:     baseURL,
		APIKey:      key,
		APIToken:    token,
		CallbackURL: callbackURL,
	}
}

func (tc *TrelloClient) auth(params url.Values) url.Values {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", tc.APIKey)
	params.Set("token", tc.APIToken)
	return params
}

func (tc *TrelloClient) do(ctx context.Context, method, path string, params url.Values, body io.Reader, out any) error {
	defer metrics.ObserveRequest("trello", time.Now())

	apiURL := tc.BaseURL + path + "?" + tc.auth(params).Encode()
	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{API: "trello", Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Trello response: %w", err)
	}
	return nil
}

// GetCard fetches a single card with its custom field items, names resolved.
func (tc *TrelloClient) GetCard(ctx context.Context, cardID string) (models.Card, error) {
	params := url.Values{}
	params.Set("customFieldItems", "true")
	params.Set("fields", cardFields)

	var card models.Card
	if err := tc.do(ctx, http.MethodGet, "/cards/"+url.PathEscape(cardID), params, nil, &card); err != nil {
		return models.Card{}, fmt.Errorf("get card %s: %w", cardID, err)
	}

	if card.BoardID != "" && len(card.CustomFieldItems) > 0 {
		fields, err := tc.GetBoardCustomFields(ctx, card.BoardID)
		if err != nil {
			return models.Card{}, err
		}
		nameCustomFields([]models.Card{card}, fields)
	}
	return card, nil
}

// GetBoardCards fetches every card on a board with custom field items, names resolved.
func (tc *TrelloClient) GetBoardCards(ctx context.Context, boardID string) ([]models.Card, error) {
	params := url.Values{}
	params.Set("customFieldItems", "true")
	params.Set("fields", cardFields)

	cards, err := collect(tc.cardPages(ctx, "/boards/"+url.PathEscape(boardID)+"/cards", params))
	if err != nil {
		return nil, fmt.Errorf("get cards for board %s: %w", boardID, err)
	}

	fields, err := tc.GetBoardCustomFields(ctx, boardID)
	if err != nil {
		return nil, err
	}
	nameCustomFields(cards, fields)
	return cards, nil
}

// GetListCards fetches every card in a list together with attachment names and urls.
func (tc *TrelloClient) GetListCards(ctx context.Context, listID string) ([]models.Card, error) {
	params := url.Values{}
	params.Set("attachments", "true")
	params.Set("attachment_fields", "name,url")

	cards, err := collect(tc.cardPages(ctx, "/lists/"+url.PathEscape(listID)+"/cards", params))
	if err != nil {
		return nil, fmt.Errorf("get cards for list %s: %w", listID, err)
	}
	return cards, nil
}

func (tc *TrelloClient) GetBoardCustomFields(ctx context.Context, boardID string) ([]models.CustomField, error) {
	var fields []models.CustomField
	if err := tc.do(ctx, http.MethodGet, "/boards/"+url.PathEscape(boardID)+"/customFields", nil, nil, &fields); err != nil {
		return nil, fmt.Errorf("get custom fields for board %s: %w", boardID, err)
	}
	return fields, nil
}

// AddComment posts a comment on a card.
func (tc *TrelloClient) AddComment(ctx context.Context, cardID, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode comment: %w", err)
	}
	path := "/cards/" + url.PathEscape(cardID) + "/actions/comments"
	if err := tc.do(ctx, http.MethodPost, path, nil, bytes.NewReader(payload), nil); err != nil {
		return fmt.Errorf("comment on card %s: %w", cardID, err)
	}
	return nil
}

// cardPages yields successive pages of a card listing. Without a page size
// there is exactly one page. Otherwise the next page is requested with
// before=<oldest id seen> until a short page comes back.
func (tc *TrelloClient) cardPages(ctx context.Context, path string, params url.Values) iter.Seq2[[]models.Card, error] {
	return func(yield func([]models.Card, error) bool) {
		before := ""
		for {
			q := url.Values{}
			for k, v := range params {
				q[k] = v
			}
			if tc.PageSize > 0 {
				q.Set("limit", fmt.Sprint(tc.PageSize))
			}
			if before != "" {
				q.Set("before", before)
			}

			var page []models.Card
			if err := tc.do(ctx, http.MethodGet, path, q, nil, &page); err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if tc.PageSize <= 0 || len(page) < tc.PageSize {
				return
			}

			oldest := oldestID(page)
			if oldest == "" || oldest == before {
				return
			}
			before = oldest
		}
	}
}

func collect(pages iter.Seq2[[]models.Card, error]) ([]models.Card, error) {
	var cards []models.Card
	for page, err := range pages {
		if err != nil {
			return nil, err
		}
		cards = append(cards, page...)
	}
	return cards, nil
}

// Trello ids are hex object ids with the creation time leading, so the
// lexically smallest id is the oldest.
func oldestID(cards []models.Card) string {
	oldest := ""
	for _, c := range cards {
		if oldest == "" || c.ID < oldest {
			oldest = c.ID
		}
	}
	return oldest
}

func nameCustomFields(cards []models.Card, fields []models.CustomField) {
	names := make(map[string]string, len(fields))
	for _, f := range fields {
		names[f.ID] = f.Name
	}
	for i := range cards {
		for j := range cards[i].CustomFieldItems {
			item := &cards[i].CustomFieldItems[j]
			if item.Name == "" {
				item.Name = names[item.IDCustomField]
			}
		}
	}
}

func (tc *TrelloClient) RegisterWebhook(ctx context.Context, boardID string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"callbackURL": tc.CallbackURL,
		"idModel":     boardID,
		"description": "Webhook for Trello-Adpiler Sync",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode webhook: %w", err)
	}

	var webhook struct {
		ID string `json:"id"`
	}
	if err := tc.do(ctx, http.MethodPost, "/webhooks/", nil, bytes.NewReader(payload), &webhook); err != nil {
		return "", fmt.Errorf("register webhook for board %s: %w", boardID, err)
	}

	zap.L().Info("Registered webhook", zap.String("webhookID", webhook.ID), zap.String("boardID", boardID))
	return webhook.ID, nil
}

func (tc *TrelloClient) DeleteWebhook(ctx context.Context, webhookID string) error {
	if err := tc.do(ctx, http.MethodDelete, "/webhooks/"+url.PathEscape(webhookID), nil, nil, nil); err != nil {
		return fmt.Errorf("delete webhook %s: %w", webhookID, err)
	}
	zap.L().Info("Deleted webhook", zap.String("webhookID", webhookID))
	return nil
}
