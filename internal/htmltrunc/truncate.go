// Package htmltrunc shortens HTML fragments to a byte budget without leaving
// block elements half-written.
package htmltrunc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// safeClosingTags are the block closers a fragment may be cut after.
var safeClosingTags = []string{"</li>", "</p>", "</div>"}

// Truncate returns html unchanged when it fits in maxLength bytes. Otherwise it
// cuts after the last list-item, paragraph or division closer that ends within
// the budget, then appends closing tags for elements still open in the kept
// prefix, innermost first, for as long as they fit. Without any safe closer the
// input is cut hard at maxLength.
//
// Self-closing and void tags (<br/>, <img>) are treated like any other opener
// and are "closed" as well if they precede the cut. Open elements are found
// with an HTML tokenizer, so tag-like text inside comments and inside raw-text
// elements such as title, textarea, script and style is not counted.
func Truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 0 {
		return ""
	}

	var kept string
	if end := lastSafeBoundary(s, maxLength); end > 0 {
		kept = s[:min(end, len(s))]
	} else {
		kept = cutAt(s, maxLength)
	}

	result := closeOpenTags(kept, maxLength)
	if len(result) > maxLength {
		result = cutAt(result, maxLength)
	}
	return result
}

// lastSafeBoundary returns the end offset of the safe closer with the largest
// start index that lies completely within s[:maxLength], or -1.
func lastSafeBoundary(s string, maxLength int) int {
	window := s[:maxLength]
	bestStart, bestEnd := -1, -1
	for _, tag := range safeClosingTags {
		idx := lastIndexFold(window, tag)
		if idx > bestStart {
			bestStart = idx
			bestEnd = idx + len(tag)
		}
	}
	return bestEnd
}

// lastIndexFold is strings.LastIndex with ASCII case folding.
func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// closeOpenTags re-scans fragment and appends closers for unclosed elements.
// A closer only pops the stack when it matches the innermost open element;
// stray closers are ignored.
func closeOpenTags(fragment string, maxLength int) string {
	var open []string

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			open = append(open, string(name))
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := len(open); n > 0 && open[n-1] == string(name) {
				open = open[:n-1]
			}
		}
	}

	if len(open) == 0 {
		return fragment
	}

	var b strings.Builder
	b.Grow(maxLength)
	b.WriteString(fragment)
	for i := len(open) - 1; i >= 0; i-- {
		closer := "</" + open[i] + ">"
		if b.Len()+len(closer) > maxLength {
			break
		}
		b.WriteString(closer)
	}
	return b.String()
}

// cutAt slices s to at most n bytes without splitting a UTF-8 sequence.
func cutAt(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
