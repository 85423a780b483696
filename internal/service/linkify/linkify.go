// Package linkify rewrites raw hyperlinks in an HTML body into controlled
// annotation tokens:
//
//	[internal_link url="/guides/x"]anchor text[/internal_link]
//	[affiliate_link url="https://amzn.to/abc"]anchor text[/affiliate_link]
//	[external_link url="https://example.org"]anchor text[/external_link]
//
// Everything outside the rewritten anchors is copied byte for byte, so running
// the transformer on its own output changes nothing.
package linkify

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

// Kind is the classification of a link target.
type Kind string

const (
	KindInternal  Kind = "internal"
	KindAffiliate Kind = "affiliate"
	KindExternal  Kind = "external"
)

// Result is the outcome of one transform run.
type Result struct {
	// Content is the transformed body. On failure it is the untouched input.
	Content string
	Success bool
	Summary domain.LinkSummary
	// Issues are non-fatal findings such as malformed hrefs.
	Issues []string
}

// Transformer rewrites raw anchors into annotation tokens.
type Transformer interface {
	Transform(ctx context.Context, contentID uuid.UUID, html string) (Result, error)
}

// TokenPattern matches one complete annotation token. Group 1 is the kind,
// group 2 the URL and group 3 the anchor text.
var TokenPattern = regexp.MustCompile(`(?s)\[(internal|affiliate|external)_link url="([^"]*)"\](.*?)\[/(?:internal|affiliate|external)_link\]`)

// openTokenPattern detects an annotation token start anywhere in a fragment.
var openTokenPattern = regexp.MustCompile(`\[(?:internal|affiliate|external)_link url="`)

// Token renders an annotation token.
func Token(kind Kind, url, text string) string {
	return "[" + string(kind) + `_link url="` + escapeURL(url) + `"]` + text + "[/" + string(kind) + "_link]"
}

// CountTokens returns a summary of the annotation tokens present in body.
func CountTokens(body string) domain.LinkSummary {
	var s domain.LinkSummary
	for _, m := range TokenPattern.FindAllStringSubmatch(body, -1) {
		tally(&s, Kind(m[1]))
	}
	return s
}

func escapeURL(u string) string {
	out := make([]byte, 0, len(u))
	for i := 0; i < len(u); i++ {
		switch u[i] {
		case '"':
			out = append(out, "%22"...)
		case '[':
			out = append(out, "%5B"...)
		case ']':
			out = append(out, "%5D"...)
		default:
			out = append(out, u[i])
		}
	}
	return string(out)
}

func tally(s *domain.LinkSummary, k Kind) {
	switch k {
	case KindInternal:
		s.Internal++
	case KindAffiliate:
		s.Affiliate++
	case KindExternal:
		s.External++
	default:
		return
	}
	s.Total++
}
