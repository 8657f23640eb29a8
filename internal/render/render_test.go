package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

func TestRenderSubstitution(t *testing.T) {
	req := Request{
		FileName:  "clip.mp4",
		PosterURL: "https://x/p.jpg",
		FileURL:   "https://x/v.mp4",
	}

	page, err := Page(req)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	html := string(page)

	for _, want := range []string{
		`<source src="https://x/v.mp4" type="video/mp4" />`,
		`poster="https://x/p.jpg"`,
		`<title>File Stream | clip.mp4</title>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}

	if n := strings.Count(html, "<video"); n != 1 {
		t.Errorf("expected exactly one <video> element, got %d", n)
	}
}

func TestRenderDeterministic(t *testing.T) {
	req := Request{
		FileName:  "movie.mkv",
		PosterURL: "https://cdn.example.com/poster.jpg",
		FileURL:   "https://cdn.example.com/movie.mkv",
	}

	first, err := Page(req)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	second, err := Page(req)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("identical requests produced different output")
	}
}

func TestRenderEmptyValues(t *testing.T) {
	page, err := Page(Request{})
	if err != nil {
		t.Fatalf("Page returned error for empty request: %v", err)
	}
	html := string(page)

	if !strings.Contains(html, `<source src="" type="video/mp4" />`) {
		t.Error("empty FileURL should render as empty src attribute")
	}
	if !strings.Contains(html, `<title>File Stream | </title>`) {
		t.Error("empty FileName should render as empty title suffix")
	}
}

func TestRenderEscapesMetacharacters(t *testing.T) {
	req := Request{
		FileName:  `<script>alert("x")</script>.mp4`,
		PosterURL: `https://x/p.jpg" onerror="alert(1)`,
		FileURL:   `https://x/v.mp4?a=1&b=2`,
	}

	page, err := Page(req)
	if err != nil {
		t.Fatalf("Page must not fail on metacharacter input: %v", err)
	}
	html := string(page)

	if strings.Contains(html, `<script>alert("x")</script>`) {
		t.Error("file name was inserted unescaped")
	}
	if strings.Contains(html, `poster="https://x/p.jpg" onerror=`) {
		t.Error("poster URL broke out of its attribute")
	}
}

func TestRenderSnapshot(t *testing.T) {
	page, err := Page(Request{
		FileName:  "sample.mp4",
		PosterURL: "https://files.example.com/thumb/f_1?h=abc",
		FileURL:   "https://files.example.com/dl/f_1?h=abc",
	})
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	snaps.MatchSnapshot(t, string(page))
}
