package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"content_spider/internal/models"
)

func TestTitleResolutionOrder(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{
			name: "title tag wins",
			html: `<html><head><title>From Title</title></head><body><h1>From H1</h1></body></html>`,
			want: "From Title",
		},
		{
			name: "first heading when no title tag",
			html: `<html><body><h1>From H1</h1><h1>Second</h1></body></html>`,
			want: "From H1",
		},
		{
			name: "title class element",
			html: `<html><body><div class="headline">From Class</div></body></html>`,
			want: "From Class",
		},
		{
			name: "og title meta",
			html: `<html><head><meta property="og:title" content="From OG"></head><body></body></html>`,
			want: "From OG",
		},
		{
			name: "empty fallback",
			html: `<html><body><p>no title anywhere</p></body></html>`,
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := Extract(tc.html, "https://example.com/", nil)
			require.Equal(t, tc.want, page.Title)
		})
	}
}

func TestTitleSelectorOverride(t *testing.T) {
	html := `<html><head><title>Generic</title></head><body><span class="custom">Specific</span></body></html>`
	page := Extract(html, "https://example.com/", &models.Selectors{Title: ".custom"})
	require.Equal(t, "Specific", page.Title)
}

func TestContentStructure(t *testing.T) {
	html := `<html><body><main>
<h2>Opening Hours</h2>
<p>The museum is open every day from nine in the morning until six in the evening.</p>
<p>Guided tours run twice daily and can be booked at the front desk in the entrance hall.</p>
<nav><a href="/">Home</a></nav>
</main></body></html>`

	page := Extract(html, "https://example.com/museum", nil)
	require.Contains(t, page.Content, "SECTIONS:")
	require.Contains(t, page.Content, "Opening Hours")
	require.Contains(t, page.Content, "CONTENT:")
	require.Contains(t, page.Content, "1. The museum is open")
	require.NotContains(t, page.Content, "Home")
}

func TestContentSkipsNavigationText(t *testing.T) {
	html := `<html><body><main>
<p>All rights reserved by the operator of this site and its partners.</p>
<p>The annual town festival takes place on the market square in early September and draws visitors from the whole region.</p>
</main></body></html>`

	page := Extract(html, "https://example.com/", nil)
	require.Contains(t, page.Content, "town festival")
	require.NotContains(t, page.Content, "rights reserved")
}

func TestSummaryOnlyForLongContent(t *testing.T) {
	short := `<html><body><main><p>` + strings.Repeat("Short sentence here. ", 5) + `</p></main></body></html>`
	page := Extract(short, "https://example.com/", nil)
	require.NotNil(t, page.Metadata)
	require.Empty(t, page.Metadata.Summary)

	long := `<html><body><main><p>` + strings.Repeat("This is a reasonably long sentence about the town. ", 20) + `</p></main></body></html>`
	page = Extract(long, "https://example.com/", nil)
	require.NotEmpty(t, page.Metadata.Summary)
	// First three sentences only.
	require.Equal(t, 3, strings.Count(page.Metadata.Summary, "."))
}

func TestMetadataExtraction(t *testing.T) {
	html := `<html><head>
<meta name="author" content="Jana Markec">
<meta name="keywords" content="culture, festival , music">
<meta property="article:published_time" content="2026-08-01T10:00:00Z">
</head><body><main><p>Some content long enough to be collected by the extractor here.</p></main></body></html>`

	page := Extract(html, "https://example.com/", nil)
	require.NotNil(t, page.Metadata)
	require.Equal(t, "Jana Markec", page.Metadata.Author)
	require.Equal(t, "2026-08-01T10:00:00Z", page.Metadata.PublishedDate)
	require.Equal(t, []string{"culture", "festival", "music"}, page.Metadata.Tags)
}

func TestNormalizeText(t *testing.T) {
	in := "a\tb   c\n\n\n\nd"
	require.Equal(t, "a b c\n\nd", normalizeText(in))
}

func TestExtractNeverErrors(t *testing.T) {
	// Garbage markup still produces a page, just an empty-ish one.
	page := Extract("<<<>>> not html at all &&", "https://example.com/", nil)
	require.NotNil(t, page.Metadata)
}
