package linkify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Local rewrites anchors in-process.
type Local struct {
	classifier Classifier
	log        *slog.Logger
}

// NewLocal creates an in-process transformer.
func NewLocal(log *slog.Logger, classifier Classifier) *Local {
	return &Local{
		classifier: classifier,
		log:        log.With("service", "linkify"),
	}
}

// anchor accumulates one <a> element while it is being read.
type anchor struct {
	open  string
	href  string
	has   bool
	inner strings.Builder
}

// Transform replaces every <a href> in body with an annotation token.
// Anchors whose content is already a token are unwrapped instead, and hrefs
// that cannot be classified are replaced by their text and reported.
func (l *Local) Transform(ctx context.Context, contentID uuid.UUID, body string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Success: true}
	var out strings.Builder
	out.Grow(len(body))

	z := html.NewTokenizer(strings.NewReader(body))
	var cur *anchor

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				l.log.WarnContext(ctx, "tokenize body failed",
					slog.String("content_id", contentID.String()),
					slog.String("error", err.Error()))
				return Result{Content: body, Success: false, Issues: []string{"parse html: " + err.Error()}}, nil
			}
			break
		}
		raw := string(z.Raw())

		name, hasAttr := z.TagName()
		isA := string(name) == "a"

		switch {
		case cur == nil && isA && tt == html.StartTagToken:
			cur = &anchor{open: raw}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" {
					cur.href, cur.has = string(val), true
				}
			}
		case cur != nil && isA && tt == html.EndTagToken:
			out.WriteString(l.rewrite(cur, raw, &res))
			cur = nil
		case cur != nil:
			cur.inner.WriteString(raw)
		default:
			out.WriteString(raw)
		}
	}

	if cur != nil {
		// Unclosed anchor: keep the bytes, the validation gate reports it as raw.
		out.WriteString(cur.open)
		out.WriteString(cur.inner.String())
		res.Issues = append(res.Issues, "unclosed anchor")
	}

	res.Content = out.String()

	l.log.DebugContext(ctx, "links transformed",
		slog.String("content_id", contentID.String()),
		slog.Int("internal", res.Summary.Internal),
		slog.Int("affiliate", res.Summary.Affiliate),
		slog.Int("external", res.Summary.External),
		slog.Int("issues", len(res.Issues)),
	)

	return res, nil
}

func (l *Local) rewrite(a *anchor, closing string, res *Result) string {
	text := a.inner.String()

	if !a.has {
		// Named anchor without a target; not a hyperlink.
		return a.open + text + closing
	}

	if openTokenPattern.MatchString(text) {
		res.Issues = append(res.Issues, fmt.Sprintf("already annotated link %q unwrapped", a.href))
		return text
	}

	kind, err := l.classifier.Classify(a.href)
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("link %q dropped: %v", a.href, err))
		return text
	}

	tally(&res.Summary, kind)
	return Token(kind, strings.TrimSpace(a.href), text)
}
