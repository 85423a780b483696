package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/service/linkify"
)

// Issue types.
const (
	IssueRawLinks        = "raw_links"
	IssueInternalLinks   = "internal_links"
	IssueExternalLinks   = "external_links"
	IssueWordCount       = "word_count"
	IssueTitleLength     = "title_length"
	IssueMetaLength      = "meta_description_length"
	IssueStructuredData  = "structured_data"
	IssueInfrastructure  = "infrastructure"
	IssueDuplicateLinks  = "duplicate_links"
	IssueAffiliateLinks  = "affiliate_links"
	IssueEmptyAnchorText = "empty_anchor_text"
)

// evaluate is a pure function of its input, so identical input yields an
// identical verdict.
func (g *Gate) evaluate(in Input) (domain.ValidationResult, error) {
	// Tokens are replaced by their anchor text so markup never counts as words.
	plain := linkify.TokenPattern.ReplaceAllString(in.HTML, "$3")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(plain))
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("parse body: %w", err)
	}

	summary := linkify.CountTokens(in.HTML)
	m := domain.ValidationMetrics{
		InternalLinks:         summary.Internal,
		ExternalLinks:         summary.External,
		AffiliateLinks:        summary.Affiliate,
		RawLinks:              doc.Find("a[href]").Length(),
		TitleLength:           utf8.RuneCountInString(strings.TrimSpace(in.Title)),
		MetaDescriptionLength: utf8.RuneCountInString(strings.TrimSpace(in.MetaDescription)),
		HasStructuredData:     hasStructuredData(doc),
	}

	doc.Find("script, style, noscript, template").Remove()
	m.WordCount = countWords(doc.Selection.Nodes)

	r := g.rules
	res := domain.ValidationResult{
		Errors:   []domain.ValidationIssue{},
		Warnings: []domain.ValidationIssue{},
		Metrics:  m,
	}
	fail := func(typ, format string, args ...any) {
		res.Errors = append(res.Errors, domain.ValidationIssue{Type: typ, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(typ, format string, args ...any) {
		res.Warnings = append(res.Warnings, domain.ValidationIssue{Type: typ, Message: fmt.Sprintf(format, args...)})
	}

	if m.RawLinks > 0 {
		fail(IssueRawLinks, "%d raw hyperlink(s) remain; run the link transformer", m.RawLinks)
	}
	if m.InternalLinks < r.MinInternalLinks || m.InternalLinks > r.MaxInternalLinks {
		fail(IssueInternalLinks, "%d internal links, need %d to %d", m.InternalLinks, r.MinInternalLinks, r.MaxInternalLinks)
	}
	if m.ExternalLinks < r.MinExternalLinks {
		fail(IssueExternalLinks, "%d external citation links, need at least %d", m.ExternalLinks, r.MinExternalLinks)
	}
	switch {
	case m.WordCount < r.MinWords || m.WordCount > r.MaxWords:
		fail(IssueWordCount, "%d words, need %d to %d", m.WordCount, r.MinWords, r.MaxWords)
	case float64(m.WordCount) < float64(r.MinWords)*(1+r.WordCountMargin):
		warn(IssueWordCount, "%d words is close to the minimum of %d", m.WordCount, r.MinWords)
	case float64(m.WordCount) > float64(r.MaxWords)*(1-r.WordCountMargin):
		warn(IssueWordCount, "%d words is close to the maximum of %d", m.WordCount, r.MaxWords)
	}
	if m.TitleLength < r.MinTitleLength || m.TitleLength > r.MaxTitleLength {
		fail(IssueTitleLength, "title is %d characters, need %d to %d", m.TitleLength, r.MinTitleLength, r.MaxTitleLength)
	}
	if m.MetaDescriptionLength < r.MinMetaLength || m.MetaDescriptionLength > r.MaxMetaLength {
		fail(IssueMetaLength, "meta description is %d characters, need %d to %d", m.MetaDescriptionLength, r.MinMetaLength, r.MaxMetaLength)
	}
	if !m.HasStructuredData {
		fail(IssueStructuredData, "no application/ld+json structured data block")
	}

	seen := make(map[string]bool)
	for _, tok := range linkify.TokenPattern.FindAllStringSubmatch(in.HTML, -1) {
		url, text := tok[2], tok[3]
		if seen[url] {
			warn(IssueDuplicateLinks, "%s is linked more than once", url)
		}
		seen[url] = true
		if strings.TrimSpace(stripTags(text)) == "" {
			warn(IssueEmptyAnchorText, "link to %s has no anchor text", url)
		}
	}
	if m.AffiliateLinks > 0 {
		warn(IssueAffiliateLinks, "%d affiliate link(s); make sure a disclosure is present", m.AffiliateLinks)
	}

	res.Passed = len(res.Errors) == 0
	return res, nil
}

func hasStructuredData(doc *goquery.Document) bool {
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != "" {
			found = true
			return false
		}
		return true
	})
	return found
}

func stripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}

// countWords counts whitespace-separated words per text node, so adjacent
// block elements never merge their words.
func countWords(nodes []*html.Node) int {
	n := 0
	for _, node := range nodes {
		if node.Type == html.TextNode {
			n += len(strings.Fields(node.Data))
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			n += countWords([]*html.Node{c})
		}
	}
	return n
}
