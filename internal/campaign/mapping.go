package campaign

import "errors"

var ErrNoMatchingLabel = errors.New("no matching label")

// UTM is the tracking source/medium pair a label routes to.
type UTM struct {
	Source string
	Medium string
}

// Mapping is keyed by lowercase label name.
var Mapping = map[string]UTM{
	"facebook": {Source: "FTE", Medium: "facebook"},
	"display":  {Source: "FTE", Medium: "display"},
	"tiktok":   {Source: "FTE", Medium: "tiktok"},
	"audio":    {Source: "FTE", Medium: "audio"},
}

// Match is the result of resolving a card's labels.
type Match struct {
	Label string
	UTM   UTM
	// All lists every recognized label in card order, including Label.
	All []string
}

// Ambiguous reports whether the card carried more than one recognized label.
func (m Match) Ambiguous() bool { return len(m.All) > 1 }

// Resolve picks the first label, in the card's own order, that has a mapping.
// labels must already be lowercased.
func Resolve(labels []string) (Match, error) {
	var m Match
	for _, l := range labels {
		utm, ok := Mapping[l]
		if !ok {
			continue
		}
		if len(m.All) == 0 {
			m.Label = l
			m.UTM = utm
		}
		m.All = append(m.All, l)
	}
	if len(m.All) == 0 {
		return Match{}, ErrNoMatchingLabel
	}
	return m, nil
}
