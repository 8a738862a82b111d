package release

import (
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in    string
		want  Format
		known bool
	}{
		{"text", FormatText, true},
		{"", FormatText, true},
		{"markdown", FormatMarkdown, true},
		{"MARKDOWN", FormatMarkdown, true},
		{"html", FormatHTML, true},
		{"sms", FormatText, false},
	}

	for _, tt := range tests {
		got, known := ParseFormat(tt.in)
		if got != tt.want || known != tt.known {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v, %v", tt.in, got, known, tt.want, tt.known)
		}
	}
}

func TestRender(t *testing.T) {
	info := &Info{
		Tag:       "v2.1.0",
		SourceURL: "https://github.com/cli/cli",
		Assets: []Asset{
			{Name: "cli_linux_amd64.tar.gz", URL: "https://example.com/a.tar.gz"},
		},
	}

	t.Run("text", func(t *testing.T) {
		body := Render("cli/cli", info, FormatText)
		for _, want := range []string{"cli/cli", "v2.1.0", "https://github.com/cli/cli", "cli_linux_amd64.tar.gz"} {
			if !strings.Contains(body, want) {
				t.Errorf("text body missing %q:\n%s", want, body)
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		body := Render("cli/cli", info, FormatMarkdown)
		if !strings.Contains(body, "[cli/cli](https://github.com/cli/cli)") {
			t.Errorf("markdown body missing repo link:\n%s", body)
		}
		if !strings.Contains(body, "[cli_linux_amd64.tar.gz](https://example.com/a.tar.gz)") {
			t.Errorf("markdown body missing asset link:\n%s", body)
		}
	})

	t.Run("html escapes", func(t *testing.T) {
		spicy := &Info{Tag: "<v1>", SourceURL: "https://example.com"}
		body := Render("a<b>/c", spicy, FormatHTML)
		if strings.Contains(body, "<b>") {
			t.Errorf("repo id not escaped:\n%s", body)
		}
		if !strings.Contains(body, "&lt;v1&gt;") {
			t.Errorf("tag not escaped:\n%s", body)
		}
	})

	t.Run("no assets no section", func(t *testing.T) {
		bare := &Info{Tag: "1.0"}
		body := Render("pkg", bare, FormatText)
		if strings.Contains(body, "Assets:") {
			t.Errorf("unexpected assets section:\n%s", body)
		}
	})
}
