package ui

import (
	"html/template"
	"net/http"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func (a *App) handleHelp(w http.ResponseWriter, r *http.Request) {
	source, err := embeddedFiles.ReadFile("help.md")
	if err != nil {
		a.logger.Error("help page source missing: %v", err)
		http.Error(w, "help unavailable", http.StatusInternalServerError)
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	rendered := markdown.ToHTML(source, p, renderer)

	a.render(w, "help.html", struct {
		Content template.HTML
	}{Content: template.HTML(rendered)})
}
