// Package xbrl scans inline-XBRL markup for tagged financial facts.
// The output is an auxiliary signal: it is reported alongside the
// AI-extracted record but never persisted.
package xbrl

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// Kind distinguishes numeric from non-numeric tag facts.
type Kind string

const (
	KindNonFraction Kind = "nonfraction"
	KindNonNumeric  Kind = "nonnumeric"
)

// TagFact is a single labeled value scraped from an inline-XBRL tag.
// Numeric holds the value for nonfraction facts; Text for nonnumeric.
type TagFact struct {
	Kind     Kind
	Name     string
	Numeric  decimal.Decimal
	Text     string
	Unit     string
	Decimals string
}

// Scanner walks inline-XBRL documents. Per-element failures are
// logged and skipped; one bad element never aborts the scan.
type Scanner struct {
	log *slog.Logger
}

func NewScanner(log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{log: log}
}

// Only well-formed, optionally signed decimal numerals are accepted
// after thousands separators are stripped.
var numeralPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Scan parses markup and returns all tag facts in document order,
// without deduplication. Numeric elements whose text is not a
// well-formed numeral are silently dropped.
func (s *Scanner) Scan(r io.Reader) ([]TagFact, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var out []TagFact
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "ix:nonfraction":
				if f, ok := s.numericFact(n); ok {
					out = append(out, f)
				}
			case "ix:nonnumeric":
				out = append(out, TagFact{
					Kind:     KindNonNumeric,
					Name:     attrOr(n, "name", "Unknown"),
					Text:     strings.TrimSpace(textContent(n)),
					Unit:     "N/A",
					Decimals: "N/A",
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func (s *Scanner) numericFact(n *html.Node) (TagFact, bool) {
	text := strings.ReplaceAll(strings.TrimSpace(textContent(n)), ",", "")
	if !numeralPattern.MatchString(text) {
		s.log.Warn("skipping nonfraction with non-numeral text",
			"name", attrOr(n, "name", "Unknown"), "text", text)
		return TagFact{}, false
	}
	// The pattern guarantees decimal syntax.
	value, err := decimal.NewFromString(text)
	if err != nil {
		return TagFact{}, false
	}
	return TagFact{
		Kind:     KindNonFraction,
		Name:     attrOr(n, "name", "Unknown"),
		Numeric:  value,
		Unit:     attrOr(n, "unitref", "Unknown"),
		Decimals: attrOr(n, "decimals", "Unknown"),
	}, true
}

// attrOr returns the value of the named attribute, or fallback if the
// attribute is absent. The html parser lowercases attribute keys.
func attrOr(n *html.Node, name, fallback string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return fallback
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}
