package campaign

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

const ClientFieldName = "Client"

var (
	ErrNoClient      = errors.New("no Client field")
	ErrInvalidClient = errors.New("invalid Client field")
)

// ClientName returns the text of the card's "Client" custom field. The value
// becomes a directory name, so anything that is not a single plain path
// segment is rejected.
func ClientName(items []models.CustomFieldItem) (string, error) {
	var text string
	found := false
	for _, item := range items {
		if item.Name == ClientFieldName {
			text = item.Value.Text
			found = true
			break
		}
	}
	if !found || text == "" {
		return "", ErrNoClient
	}
	if err := checkSegment(text); err != nil {
		return "", fmt.Errorf("%w: %q %v", ErrInvalidClient, text, err)
	}
	return text, nil
}

func checkSegment(s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return errors.New("blank")
	case s == "." || s == "..":
		return errors.New("relative directory")
	case strings.ContainsAny(s, `/\`):
		return errors.New("contains a path separator")
	case strings.ContainsRune(s, 0):
		return errors.New("contains NUL")
	case len(s) >= 2 && s[1] == ':':
		return errors.New("looks like a drive path")
	}
	return nil
}
