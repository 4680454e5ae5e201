package models

import "strings"

type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CustomFieldValue struct {
	Text string `json:"text"`
}

// CustomFieldItem is a value set on a card. Trello only sends IDCustomField,
// Name is filled in from the board's field definitions.
type CustomFieldItem struct {
	ID            string           `json:"id"`
	IDCustomField string           `json:"idCustomField"`
	Name          string           `json:"name,omitempty"`
	Value         CustomFieldValue `json:"value"`
}

type CustomField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Card struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Desc             string            `json:"desc"`
	URL              string            `json:"url"`
	BoardID          string            `json:"idBoard"`
	ListID           string            `json:"idList"`
	Labels           []Label           `json:"labels"`
	CustomFieldItems []CustomFieldItem `json:"customFieldItems"`
	Attachments      []Attachment      `json:"attachments"`
}

// LabelNames returns the card's label names lowercased, in card order.
func (c Card) LabelNames() []string {
	names := make([]string, 0, len(c.Labels))
	for _, l := range c.Labels {
		names = append(names, strings.ToLower(l.Name))
	}
	return names
}

// CardArtifact is the JSON document written per card under its client folder.
type CardArtifact struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Desc      string   `json:"desc"`
	URL       string   `json:"url"`
	UTMSource string   `json:"utm_source"`
	UTMMedium string   `json:"utm_medium"`
	Labels    []string `json:"labels"`
}
