package portal

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TokenExtractor pulls one named hidden-field value out of a page body.
// duplicate is set when the field appears more than once; the first value
// always wins.
type TokenExtractor interface {
	Extract(body []byte, marker string) (token string, duplicate bool)
}

// SplitLines decodes HTML entities and splits the body into lines. Hidden
// fields carry entity-encoded JSON, so matching happens on decoded text.
func SplitLines(body []byte) []string {
	text := html.UnescapeString(string(body))
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

var (
	digitValuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvalue\s*=\s*["']?([0-9]+)(?:["'\s/>]|$)`),
		// shortened attribute form
		regexp.MustCompile(`(?i)\bv\s*=\s*["']?([0-9]+)(?:["'\s/>]|$)`),
	}
	anyValuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvalue\s*=\s*"(.*)"`),
		regexp.MustCompile(`(?i)\bvalue\s*=\s*'(.*)'`),
		regexp.MustCompile(`(?i)\bvalue\s*=\s*([^\s"'>]+)`),
	}
)

// LineScanner is a tolerant text scan: any line containing the marker
// (case-insensitive) is a candidate and its value attribute is taken.
type LineScanner struct {
	// DigitsOnly restricts values to numeric tokens, as used by the
	// authentication fields.
	DigitsOnly bool
}

func (s LineScanner) Extract(body []byte, marker string) (string, bool) {
	return s.Scan(SplitLines(body), marker)
}

// Scan works on lines that are already entity-decoded.
func (s LineScanner) Scan(lines []string, marker string) (token string, duplicate bool) {
	if marker == "" {
		return "", false
	}
	needle := strings.ToLower(marker)
	found := 0
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		found++
		if found > 1 {
			duplicate = true
		}
		if token == "" {
			token = s.value(line)
		}
	}
	return token, duplicate
}

func (s LineScanner) value(line string) string {
	patterns := anyValuePatterns
	if s.DigitsOnly {
		patterns = digitValuePatterns
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(line); len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// DOMExtractor walks input elements instead of scanning text. It matches
// on the name or id attribute, case-insensitively. It takes the raw body:
// the parser does the entity decoding.
type DOMExtractor struct{}

func (DOMExtractor) Extract(body []byte, marker string) (token string, duplicate bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil || marker == "" {
		return "", false
	}
	found := 0
	doc.Find("input").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", sel.AttrOr("id", ""))
		if !strings.EqualFold(name, marker) {
			return
		}
		found++
		if found == 1 {
			token = strings.TrimSpace(sel.AttrOr("value", ""))
		}
	})
	return token, found > 1
}

// FirstOf tries each extractor in order and returns the first non-empty
// token.
type FirstOf []TokenExtractor

func (f FirstOf) Extract(body []byte, marker string) (string, bool) {
	for _, e := range f {
		if tok, dup := e.Extract(body, marker); tok != "" {
			return tok, dup
		}
	}
	return "", false
}
