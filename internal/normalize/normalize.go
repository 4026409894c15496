// Package normalize turns raw inference responses into display-ready results.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedResponse is returned when a response arrived but its payload
// does not have the expected shape.
var ErrMalformedResponse = errors.New("malformed inference response")

const (
	// BulletPrefix starts every summary line.
	BulletPrefix = "- "
	// sentenceBoundary is where summaries are split into bullets.
	sentenceBoundary = ". "
)

// Summary is an ordered list of bullet lines.
type Summary []string

// Markdown renders the bullets one per line.
func (s Summary) Markdown() string {
	return strings.Join(s, "\n")
}

// Answer is the extracted QA result. Score is the backend's confidence when
// it reports one.
type Answer struct {
	Text  string  `json:"answer"`
	Score float64 `json:"score,omitempty"`
}

// NormalizeSummary expects a JSON array whose first element carries a string
// summary_text field.
func NormalizeSummary(raw []byte) (Summary, error) {
	root, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, malformed(root, "expected an array of summaries")
	}
	items := root.Array()
	if len(items) == 0 {
		return nil, malformed(root, "empty summary array")
	}
	field := items[0].Get("summary_text")
	if field.Type != gjson.String {
		return nil, malformed(root, "missing summary_text")
	}
	return Bullets(field.String()), nil
}

// NormalizeAnswer expects a JSON object with a string answer field.
func NormalizeAnswer(raw []byte) (Answer, error) {
	root, err := parse(raw)
	if err != nil {
		return Answer{}, err
	}
	if !root.IsObject() {
		return Answer{}, malformed(root, "expected an answer object")
	}
	field := root.Get("answer")
	if field.Type != gjson.String {
		return Answer{}, malformed(root, "missing answer")
	}
	return Answer{Text: field.String(), Score: root.Get("score").Float()}, nil
}

// Bullets splits text on ". " and prefixes each non-empty fragment with a
// bullet marker. Text after the last boundary is kept verbatim, including a
// final period.
func Bullets(text string) Summary {
	fragments := strings.Split(text, sentenceBoundary)
	out := make(Summary, 0, len(fragments))
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		out = append(out, BulletPrefix+fragment)
	}
	return out
}

func parse(raw []byte) (gjson.Result, error) {
	if len(raw) == 0 {
		return gjson.Result{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	return gjson.ParseBytes(raw), nil
}

func malformed(root gjson.Result, reason string) error {
	if remote := root.Get("error"); root.IsObject() && remote.Exists() {
		return fmt.Errorf("%w: %s: remote error: %s", ErrMalformedResponse, reason, remote.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformedResponse, reason)
}
