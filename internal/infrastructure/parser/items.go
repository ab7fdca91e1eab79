package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"PoliticianEvaluator/internal/domain"
)

var (
	errNoJSON       = errors.New("no JSON value in response")
	errMissingItems = errors.New(`response object has no "items" array`)

	fenceExpr = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

// ItemOptions describes where parsed items belong.
type ItemOptions struct {
	Provider        string
	PoliticianID    string
	Category        int
	RatingScale     int
	OfficialDomains []string
	Now             time.Time
	NewID           func() string
}

// ParsedItems holds the items that passed validation and why the others did not.
type ParsedItems struct {
	Items    []domain.CollectedItem
	Rejected []error
}

type rawItem struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	DataType    string     `json:"data_type"`
	Rating      flexNumber `json:"rating"`
	Reliability flexNumber `json:"reliability"`
}

// flexNumber accepts 7, 7.5 and "7" alike.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %q: %w", s, err)
		}
		*n = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = flexNumber(v)
	return nil
}

// ParseItems extracts rated findings from a provider's text answer. The answer
// may wrap the JSON in prose or a code fence and may be either an object with
// an "items" array or a bare array. A payload that is not such JSON yields a
// *domain.ParseError; individual items failing validation are rejected, not fatal.
func ParseItems(raw string, opts ItemOptions) (ParsedItems, error) {
	entries, err := extractEntries(raw)
	if err != nil {
		return ParsedItems{}, &domain.ParseError{Provider: opts.Provider, Raw: raw, Err: err}
	}

	var out ParsedItems
	for i, entry := range entries {
		item := buildItem(entry, opts)
		if err := domain.ValidateItem(item, opts.RatingScale); err != nil {
			out.Rejected = append(out.Rejected, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// extractEntries scans the answer for the first JSON value that holds items.
// Brackets in surrounding prose are skipped; a value that decodes but holds no
// items is skipped whole so its nested arrays are not mistaken for the answer.
func extractEntries(raw string) ([]rawItem, error) {
	text := strings.TrimSpace(raw)
	if m := fenceExpr.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var firstErr error
	for pos := 0; pos < len(text); {
		i := strings.IndexAny(text[pos:], "[{")
		if i < 0 {
			break
		}
		start := pos + i

		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("decode JSON: %w", err)
			}
			pos = start + 1
			continue
		}

		entries, err := decodeEntries(value)
		if err == nil {
			return entries, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		pos = start + int(dec.InputOffset())
	}

	if firstErr == nil {
		return nil, errNoJSON
	}
	return nil, firstErr
}

func decodeEntries(payload []byte) ([]rawItem, error) {
	if payload[0] == '[' {
		var entries []rawItem
		if err := json.Unmarshal(payload, &entries); err != nil {
			return nil, fmt.Errorf("decode item array: %w", err)
		}
		return entries, nil
	}

	var envelope struct {
		Items *[]rawItem `json:"items"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode item object: %w", err)
	}
	if envelope.Items == nil {
		return nil, errMissingItems
	}
	return *envelope.Items, nil
}

func buildItem(entry rawItem, opts ItemOptions) domain.CollectedItem {
	link := strings.TrimSpace(entry.URL)
	source := strings.TrimSpace(entry.Source)
	if link == "" && looksLikeURL(source) {
		link = source
	}

	item := domain.CollectedItem{
		PoliticianID:    opts.PoliticianID,
		Category:        opts.Category,
		CollectorSource: opts.Provider,
		Title:           PlainText(entry.Title),
		Content:         PlainText(entry.Content),
		SourceName:      source,
		URL:             link,
		DataType:        ClassifyDataType(entry.DataType, link, opts.OfficialDomains),
		Rating:          int(math.Round(float64(entry.Rating))),
		Reliability:     float64(entry.Reliability),
		CreatedAt:       opts.Now.UTC(),
	}
	if opts.NewID != nil {
		item.ID = opts.NewID()
	}
	return item
}

// ClassifyDataType honours an explicit official/public label and otherwise
// checks the URL host against the official domain suffixes.
func ClassifyDataType(label, link string, officialDomains []string) domain.DataType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case string(domain.DataTypeOfficial):
		return domain.DataTypeOfficial
	case string(domain.DataTypePublic):
		return domain.DataTypePublic
	}

	parsed, err := url.Parse(link)
	if err != nil || parsed.Hostname() == "" {
		return domain.DataTypePublic
	}
	host := strings.ToLower(parsed.Hostname())
	for _, d := range officialDomains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "."))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return domain.DataTypeOfficial
		}
	}
	return domain.DataTypePublic
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
