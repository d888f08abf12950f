// Package web embeds the server-rendered UI: full pages for the home screen,
// story builder and story editor, plus the HTML fragments the editor swaps in
// via htmx (chapter content, chapter list, title display, audio players).
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Templates parses the embedded template set. It panics on a malformed
// template, which can only happen at build time.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.tmpl"))
}
