// Package render produces the player page served at /watch/{fileID}.
//
// Rendering is a pure substitution of three values into the embedded
// template: identical requests always produce byte-identical pages.
package render

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
)

//go:embed player.html
var playerHTML string

var playerTmpl = template.Must(template.New("player").Parse(playerHTML))

// Request carries the values substituted into the player page.
// Absent values render as empty strings.
type Request struct {
	FileName  string
	PosterURL string
	FileURL   string
}

// Render writes the player page for req to w. Values are escaped for
// their HTML context by html/template before insertion.
func Render(w io.Writer, req Request) error {
	return playerTmpl.Execute(w, req)
}

// Page renders the player page into a byte slice, the form kept by the
// response cache.
func Page(req Request) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, req); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
