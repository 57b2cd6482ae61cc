package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

//go:embed template/export.html
var defaultTemplate []byte

// Renderer injects export settings into the viewer's export page.
type Renderer struct {
	template []byte
}

// NewRenderer validates tmpl and returns a Renderer for it. An empty tmpl
// selects the bundled page.
func NewRenderer(tmpl []byte) (*Renderer, error) {
	if len(bytes.TrimSpace(tmpl)) == 0 {
		tmpl = defaultTemplate
	}
	doc, err := html.Parse(bytes.NewReader(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parse export template: %w", err)
	}
	if findElement(doc, atom.Head) == nil {
		return nil, fmt.Errorf("export template has no <head>")
	}
	return &Renderer{template: tmpl}, nil
}

// LoadRenderer reads the template at path. An empty path selects the bundled
// page.
func LoadRenderer(path string) (*Renderer, error) {
	if path == "" {
		return NewRenderer(nil)
	}
	tmpl, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export template: %w", err)
	}
	return NewRenderer(tmpl)
}

// Render returns the export page with a script defining app_isExportMode and
// app_exportSettings as the first child of <head>.
func (r *Renderer) Render(settings Settings) (string, error) {
	payload, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("marshal export settings: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(r.template))
	if err != nil {
		return "", fmt.Errorf("parse export template: %w", err)
	}
	head := findElement(doc, atom.Head)
	if head == nil {
		return "", fmt.Errorf("export template has no <head>")
	}

	script := &html.Node{Type: html.ElementNode, DataAtom: atom.Script, Data: "script"}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: "var app_isExportMode = true;var app_exportSettings = " + string(payload) + ";",
	})
	head.InsertBefore(script, head.FirstChild)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render export page: %w", err)
	}
	return buf.String(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
