package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"content_spider/internal/models"
)

// Page is the extractor's output. Any field may be empty; extraction
// degrades instead of failing.
type Page struct {
	Title    string
	Content  string
	Metadata *models.Metadata
}

// Content container candidates, tried in order. The first one yielding
// more than minContentLen characters wins; body is the structural last
// resort before readability.
var contentCandidates = []string{
	"main",
	"article",
	".content, .post-content, .entry-content, .article-content",
	".main-content, .page-content",
	".text-content, .body-content",
	"#content, #main",
	".container .row .col",
	"body",
}

const minContentLen = 100

// Substructures stripped from every content candidate before text is
// collected.
const strippedSelector = "script, style, nav, header, footer, .nav, .header, .footer, .sidebar, .ad, .advertisement, .ads, .comments, .comment, .social-share, .share, .related, .recommended"

var navigationKeywords = []string{
	"home", "about", "contact", "privacy", "terms", "login", "sign up",
	"subscribe", "newsletter", "follow us", "share", "like", "comment",
	"copyright", "all rights reserved", "powered by", "designed by",
}

var (
	reSpaces    = regexp.MustCompile(` {2,}`)
	reBlank     = regexp.MustCompile(`\n[ \n]*\n`)
	reSentences = regexp.MustCompile(`[.!?]+`)
)

// Extract parses raw markup and pulls out title, cleaned content, and
// metadata through ordered heuristic chains. Per-source selectors, when
// given, take precedence over the built-in chains for their field.
// Parsing failures yield an empty Page, never an error.
func Extract(rawHTML, pageURL string, sel *models.Selectors) Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Page{}
	}

	title := extractTitle(doc, sel)
	content := extractContent(doc, rawHTML, pageURL, sel)

	meta := &models.Metadata{
		Author:        extractAuthor(doc, sel),
		PublishedDate: extractDate(doc, sel),
		Tags:          extractTags(doc, sel),
	}
	if len(content) > 500 {
		meta.Summary = summarize(content)
	}

	return Page{Title: title, Content: content, Metadata: meta}
}

type textStrategy func(*goquery.Document) string

func selectorText(selector string) textStrategy {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().Text())
	}
}

func metaAttr(selector, attr string) textStrategy {
	return func(doc *goquery.Document) string {
		val, _ := doc.Find(selector).First().Attr(attr)
		return strings.TrimSpace(val)
	}
}

// firstNonEmpty runs strategies in order and returns the first hit.
func firstNonEmpty(doc *goquery.Document, strategies []textStrategy) string {
	for _, s := range strategies {
		if v := s(doc); v != "" {
			return v
		}
	}
	return ""
}

func extractTitle(doc *goquery.Document, sel *models.Selectors) string {
	strategies := []textStrategy{
		selectorText("title"),
		selectorText("h1"),
		selectorText(".title, .headline, .post-title, .article-title"),
		metaAttr(`meta[property="og:title"]`, "content"),
		metaAttr(`meta[name="twitter:title"]`, "content"),
	}
	if sel != nil && sel.Title != "" {
		strategies = append([]textStrategy{selectorText(sel.Title)}, strategies...)
	}
	return firstNonEmpty(doc, strategies)
}

func extractContent(doc *goquery.Document, rawHTML, pageURL string, sel *models.Selectors) string {
	if sel != nil && sel.Content != "" {
		if s := doc.Find(sel.Content); s.Length() > 0 {
			return structuredText(s)
		}
	}

	var content string
	for _, candidate := range contentCandidates {
		s := doc.Find(candidate)
		if s.Length() == 0 {
			continue
		}
		content = structuredText(s)
		if len(content) > minContentLen {
			return content
		}
	}

	// Structural candidates came up short; let readability have a go at
	// the raw markup and keep whichever found more.
	if alt := readabilityText(rawHTML, pageURL); len(alt) > len(content) {
		content = alt
	}
	return content
}

// structuredText strips navigation substructures from the selection,
// then assembles a SECTIONS block from headings and a numbered CONTENT
// block from paragraph-level nodes.
func structuredText(s *goquery.Selection) string {
	s.Find(strippedSelector).Remove()

	var headings []string
	s.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, el *goquery.Selection) {
		h := strings.TrimSpace(el.Text())
		if len(h) > 3 {
			headings = append(headings, h)
		}
	})

	var paragraphs []string
	s.Find("p, li, div").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if len(text) > 20 && !isNavigationOrFooter(text) {
			paragraphs = append(paragraphs, text)
		}
	})

	var b strings.Builder
	if len(headings) > 0 {
		b.WriteString("SECTIONS:\n")
		for _, h := range headings {
			b.WriteString("• " + h + "\n")
		}
		b.WriteString("\n")
	}
	if len(paragraphs) > 0 {
		b.WriteString("CONTENT:\n")
		for i, p := range paragraphs {
			fmt.Fprintf(&b, "%d. %s\n\n", i+1, p)
		}
	}

	out := b.String()
	if strings.TrimSpace(out) == "" {
		out = s.Text()
	}
	return normalizeText(out)
}

func readabilityText(rawHTML, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return ""
	}
	return normalizeText(article.TextContent)
}

func isNavigationOrFooter(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range navigationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func extractAuthor(doc *goquery.Document, sel *models.Selectors) string {
	if sel != nil && sel.Author != "" {
		return strings.TrimSpace(doc.Find(sel.Author).First().Text())
	}
	return firstNonEmpty(doc, []textStrategy{
		selectorText(".author, .byline, .writer"),
		selectorText(`[rel="author"]`),
		selectorText(".post-author, .article-author"),
		metaAttr(`meta[name="author"]`, "content"),
		metaAttr(`meta[property="article:author"]`, "content"),
	})
}

func extractDate(doc *goquery.Document, sel *models.Selectors) string {
	if sel != nil && sel.Date != "" {
		return strings.TrimSpace(doc.Find(sel.Date).First().Text())
	}
	return firstNonEmpty(doc, []textStrategy{
		selectorText(".date, .published, .time"),
		metaAttr("time[datetime]", "datetime"),
		selectorText(".post-date, .article-date"),
		metaAttr(`meta[property="article:published_time"]`, "content"),
		metaAttr(`meta[name="publish_date"]`, "content"),
	})
}

func extractTags(doc *goquery.Document, sel *models.Selectors) []string {
	collect := func(selector string) []string {
		var tags []string
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			if t := strings.TrimSpace(el.Text()); t != "" {
				tags = append(tags, t)
			}
		})
		return tags
	}

	if sel != nil && sel.Tags != "" {
		return collect(sel.Tags)
	}

	for _, selector := range []string{
		".tags .tag, .categories .category",
		".post-tags .tag, .article-tags .tag",
	} {
		if tags := collect(selector); len(tags) > 0 {
			return tags
		}
	}

	var tags []string
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, el *goquery.Selection) {
		if v, ok := el.Attr("content"); ok && strings.TrimSpace(v) != "" {
			tags = append(tags, strings.TrimSpace(v))
		}
	})
	if len(tags) > 0 {
		return tags
	}

	if keywords, ok := doc.Find(`meta[name="keywords"]`).First().Attr("content"); ok {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				tags = append(tags, kw)
			}
		}
	}
	return tags
}

// summarize takes the first three sentences, skipping fragments of ten
// characters or fewer.
func summarize(content string) string {
	var sentences []string
	for _, s := range reSentences.Split(content, -1) {
		if s = strings.TrimSpace(s); len(s) > 10 {
			sentences = append(sentences, s)
		}
		if len(sentences) == 3 {
			break
		}
	}
	if len(sentences) == 0 {
		return ""
	}
	return strings.Join(sentences, ". ") + "."
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\t", " ")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
