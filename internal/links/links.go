// Package links discovers same-origin content links in raw markup.
package links

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"content_spider/internal/models"
)

// Static assets never queued for crawling.
var assetPattern = regexp.MustCompile(`(?i)\.(pdf|doc|docx|xls|xlsx|ppt|pptx|zip|rar|jpg|jpeg|png|gif|svg|ico|css|js)$`)

// Exact path suffixes for non-content pages.
var excludedSuffixes = []string{
	"/login", "/logout", "/admin", "/search",
	"/feed", "/rss", "/sitemap", "/robots.txt",
}

// Schemes and fragment-only hrefs skipped before resolution.
var skippedPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// Discover returns the deduplicated set of same-origin content URLs
// referenced by anchors in rawHTML. Invalid hrefs are silently skipped.
func Discover(sourceURL, rawHTML string) ([]string, error) {
	report, err := walk(sourceURL, rawHTML, false)
	if err != nil {
		return nil, err
	}
	return report.InternalLinks, nil
}

// Inspect classifies every anchor for the debug-extraction operation.
// Unlike Discover it records external links, excluded links, and per-href
// errors instead of dropping them.
func Inspect(sourceURL, rawHTML string) (*models.LinkReport, error) {
	return walk(sourceURL, rawHTML, true)
}

func walk(sourceURL, rawHTML string, full bool) (*models.LinkReport, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	base, err := url.Parse(sourceURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid source url %q", sourceURL)
	}
	origin := base.Scheme + "://" + base.Host
	originURL := &url.URL{Scheme: base.Scheme, Host: base.Host}

	report := &models.LinkReport{
		InternalLinks: []string{},
		ExternalLinks: []string{},
		ExcludedLinks: []string{},
		Errors:        []string{},
	}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, el *goquery.Selection) {
		href, _ := el.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		report.TotalLinks++

		for _, prefix := range skippedPrefixes {
			if strings.HasPrefix(strings.ToLower(href), prefix) {
				if full {
					report.ExcludedLinks = append(report.ExcludedLinks, href)
				}
				return
			}
		}

		parsed, err := url.Parse(href)
		if err != nil {
			if full {
				report.Errors = append(report.Errors, fmt.Sprintf("invalid href %q", href))
			}
			return
		}

		// Relative hrefs resolve against the origin, not the page path.
		abs := originURL.ResolveReference(parsed).String()

		if !strings.HasPrefix(abs, origin) {
			if full {
				report.ExternalLinks = append(report.ExternalLinks, abs)
			}
			return
		}

		if excluded(abs) {
			if full {
				report.ExcludedLinks = append(report.ExcludedLinks, abs)
			}
			return
		}

		if !seen[abs] {
			seen[abs] = true
			report.InternalLinks = append(report.InternalLinks, abs)
		}
	})

	return report, nil
}

func excluded(absURL string) bool {
	if assetPattern.MatchString(absURL) {
		return true
	}
	if strings.Contains(absURL, "/api/") {
		return true
	}
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(absURL, suffix) {
			return true
		}
	}
	return false
}
