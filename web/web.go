// Package web serves the embedded single-page chat UI.
package web

import (
	"embed"
	"html/template"
	"log"
	"net/http"
)

//go:embed index.html
var content embed.FS

var indexTemplate = template.Must(template.ParseFS(content, "index.html"))

func IndexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		log.Printf("Error rendering index page: %v", err)
	}
}
