package release

import (
	"fmt"
	"html"
	"strings"
)

// Format selects the markup used for notification bodies.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a configured format string, falling back to text.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, true
	case FormatMarkdown:
		return FormatMarkdown, true
	case FormatHTML:
		return FormatHTML, true
	}
	return FormatText, false
}

const footerURL = "https://github.com/relwatch/relwatch"

// Render builds the notification body for a new release in the given format.
func Render(repoID string, info *Info, format Format) string {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(repoID, info)
	case FormatHTML:
		return renderHTML(repoID, info)
	default:
		return renderText(repoID, info)
	}
}

func renderText(repoID string, info *Info) string {
	var b strings.Builder
	if info.SourceURL != "" {
		fmt.Fprintf(&b, "New release for %s (%s): %s\n", repoID, info.SourceURL, info.Tag)
	} else {
		fmt.Fprintf(&b, "New release for %s: %s\n", repoID, info.Tag)
	}
	if len(info.Assets) > 0 {
		b.WriteString("Assets:\n")
		for _, a := range info.Assets {
			fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.URL)
		}
	}
	fmt.Fprintf(&b, "\n---\nPowered by %s", footerURL)
	return b.String()
}

func renderMarkdown(repoID string, info *Info) string {
	var b strings.Builder
	repoDisplay := fmt.Sprintf("`%s`", repoID)
	if info.SourceURL != "" {
		repoDisplay = fmt.Sprintf("[%s](%s)", repoID, info.SourceURL)
	}
	fmt.Fprintf(&b, "🚀 **New release** for %s: `%s`\n", repoDisplay, info.Tag)
	if len(info.Assets) > 0 {
		b.WriteString("**Assets:**\n")
		for _, a := range info.Assets {
			fmt.Fprintf(&b, "- [%s](%s)\n", a.Name, a.URL)
		}
	}
	fmt.Fprintf(&b, "\n---\nPowered by [relwatch](%s)", footerURL)
	return b.String()
}

func renderHTML(repoID string, info *Info) string {
	var b strings.Builder
	repoDisplay := fmt.Sprintf("<code>%s</code>", html.EscapeString(repoID))
	if info.SourceURL != "" {
		repoDisplay = fmt.Sprintf("<a href=%q>%s</a>", info.SourceURL, html.EscapeString(repoID))
	}
	fmt.Fprintf(&b, "<p>🚀 <strong>New release</strong> for %s: <code>%s</code></p>\n", repoDisplay, html.EscapeString(info.Tag))
	if len(info.Assets) > 0 {
		b.WriteString("<p><strong>Assets:</strong></p>\n<ul>\n")
		for _, a := range info.Assets {
			fmt.Fprintf(&b, "<li><a href=%q>%s</a></li>\n", a.URL, html.EscapeString(a.Name))
		}
		b.WriteString("</ul>\n")
	}
	fmt.Fprintf(&b, "<hr><p>Powered by <a href=%q>relwatch</a></p>", footerURL)
	return b.String()
}
