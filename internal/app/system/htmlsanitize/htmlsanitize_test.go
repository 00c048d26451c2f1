package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/articlio/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		notHave string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain text", in: "Hello, World!", want: "Hello, World!"},
		{name: "safe markup", in: "<p><strong>Bold</strong> and <em>italic</em></p>", want: "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{name: "script removed", in: "<p>Hello</p><script>alert('xss')</script>", want: "<p>Hello</p>"},
		{name: "lists kept", in: "<ul><li>One</li><li>Two</li></ul>", want: "<ul><li>One</li><li>Two</li></ul>"},
		{name: "code kept", in: "<pre><code>x := 1</code></pre>", want: "<pre><code>x := 1</code></pre>"},
		{name: "formatting kept", in: "<u>u</u> <s>s</s> <mark>m</mark>", want: "<u>u</u> <s>s</s> <mark>m</mark>"},
		{name: "onclick stripped", in: `<button onclick="alert(1)">x</button>`, notHave: "onclick"},
		{name: "onerror stripped", in: `<img src="x" onerror="alert(1)">`, notHave: "onerror"},
		{name: "javascript href stripped", in: `<a href="javascript:alert(1)">x</a>`, notHave: "javascript:"},
		{name: "iframe removed", in: `<p>ok</p><iframe src="https://evil.example"></iframe>`, notHave: "iframe"},
		{name: "form removed", in: `<form action="/x"><input name="a"></form>`, notHave: "<input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.Sanitize(tt.in)
			if tt.notHave != "" {
				if strings.Contains(got, tt.notHave) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.in, got, tt.notHave)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_TableAttributes(t *testing.T) {
	in := `<table class="t"><tr><td colspan="2" rowspan="2">Cell</td></tr></table>`
	got := htmlsanitize.Sanitize(in)
	for _, want := range []string{`class="t"`, `colspan="2"`, `rowspan="2"`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s preserved, got %q", want, got)
		}
	}
}

func TestIsPlainText(t *testing.T) {
	tests := map[string]bool{
		"":             true,
		"hello":        true,
		"5 < 10":       true,
		"5 > 3":        true,
		"<p>hello</p>": false,
	}
	for in, want := range tests {
		if got := htmlsanitize.IsPlainText(in); got != want {
			t.Errorf("IsPlainText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	if got := htmlsanitize.PlainTextToHTML("Line 1\nLine 2"); got != "<p>Line 1<br>Line 2</p>" {
		t.Errorf("got %q", got)
	}
	if got := htmlsanitize.PlainTextToHTML("A & B"); got != "<p>A &amp; B</p>" {
		t.Errorf("got %q", got)
	}
	if got := htmlsanitize.PlainTextToHTML(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  ", ""},
		{"just words", "<p>just words</p>"},
		{"<p>hi</p><script>x()</script>", "<p>hi</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.Description(tt.in); got != tt.want {
			t.Errorf("Description(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
