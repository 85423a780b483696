package linkify

import (
	"errors"
	"net/url"
	"strings"
)

var (
	errEmptyHref       = errors.New("empty href")
	errFragmentHref    = errors.New("fragment-only href")
	errUnsupportedHref = errors.New("unsupported scheme")
)

// Classifier decides the Kind of a link target.
type Classifier struct {
	siteDomain       string
	affiliateDomains []string
}

// NewClassifier builds a classifier. Domains are compared case-insensitively
// and a leading "www." is ignored.
func NewClassifier(siteDomain string, affiliateDomains []string) Classifier {
	c := Classifier{siteDomain: normalizeHost(siteDomain)}
	for _, d := range affiliateDomains {
		if d = normalizeHost(d); d != "" {
			c.affiliateDomains = append(c.affiliateDomains, d)
		}
	}
	return c
}

// Classify returns the kind of href. Relative URLs and the site's own domain
// are internal; allowlisted affiliate domains and their subdomains are
// affiliate; every other http(s) target is external.
func (c Classifier) Classify(href string) (Kind, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", errEmptyHref
	}
	if strings.HasPrefix(href, "#") {
		return "", errFragmentHref
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(u.Scheme) {
	case "":
		if u.Host == "" {
			return KindInternal, nil
		}
	case "http", "https":
	default:
		return "", errUnsupportedHref
	}

	host := normalizeHost(u.Hostname())
	if host == "" {
		return "", errEmptyHref
	}
	if host == c.siteDomain {
		return KindInternal, nil
	}
	for _, d := range c.affiliateDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return KindAffiliate, nil
		}
	}
	return KindExternal, nil
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}
