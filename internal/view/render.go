// internal/view/render.go
//
// Central view engine: template lookup, theme-override chain, func-map
// injection, and an LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML to an http.ResponseWriter.
//   - RenderToString – return template.HTML (e-mail bodies, fragments).
//
// Lookup precedence (first hit wins):
//   1. themes/<theme>/components/<comp>/templates/<tpl>.html
//   2. components/<comp>/templates/<tpl>.html
//
// All templates in the same directory are parsed as one set so sub-templates
// ({{ template "row" . }}) work out-of-the-box.
//
// execName() chooses the best template to execute:
//   - If the set contains "<name>.html", we run that (file has no define).
//   - Else we fall back to "<name>" (root template defined via {{ define }}).
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanizio/propcost/internal/cache"
	"github.com/yanizio/propcost/internal/requestinfo"
)

// CachePolicy hints how the caller wants this template cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // obey global TTL
	CacheSkip                       // never cache (dev mode)
)

// Renderer parses and caches template sets rooted at a single site
// directory.  It is safe for concurrent use.
type Renderer struct {
	root  string // filesystem root holding components/ and themes/
	theme string
	site  SiteMeta
	lru   *cache.LRU
	dev   bool // skip the cache so template edits show up immediately
}

// SiteMeta is injected into every template as .Site.
type SiteMeta struct {
	Title   string
	BaseURL string
}

// New returns a Renderer rooted at dir.  When dev is true, parsed sets are
// never cached.
func New(dir, theme string, site SiteMeta, dev bool) *Renderer {
	if theme == "" {
		theme = "default"
	}
	return &Renderer{
		root:  dir,
		theme: theme,
		site:  site,
		lru:   cache.New(256),
		dev:   dev,
	}
}

// Data is the envelope handed to every template execution.
type Data struct {
	Site    SiteMeta
	Request *requestinfo.RequestInfo
	User    any // session payload or nil
	Content any // component-specific payload
}

// Render executes the template set and streams it to w.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, comp, name string, content any, user any) error {
	t, err := v.load(comp, name)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := Data{
		Site:    v.site,
		Request: requestinfo.FromContext(r.Context()),
		User:    user,
		Content: content,
	}
	return t.ExecuteTemplate(w, execName(t, name), data)
}

// RenderToString executes and returns HTML.  It mirrors Render, but writes
// to a buffer instead of w.
func (v *Renderer) RenderToString(comp, name string, content any) (template.HTML, error) {
	t, err := v.load(comp, name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	data := Data{Site: v.site, Content: content}
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// load finds and (if necessary) parses the template set for the given
// component and base name.
func (v *Renderer) load(comp, name string) (*template.Template, error) {
	key := strings.Join([]string{v.theme, comp, name}, "::")

	if !v.dev {
		if cached, ok := v.lru.Get(key); ok {
			return cached.(*template.Template), nil
		}
	}

	paths := []string{
		filepath.Join(v.root, "themes", v.theme, "components", comp, "templates", name+".html"),
		filepath.Join(v.root, "components", comp, "templates", name+".html"),
	}

	var base string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			base = p
			break
		}
	}
	if base == "" {
		return nil, os.ErrNotExist
	}

	// Parse all *.html in the same directory so sub-templates work.
	pattern := filepath.Join(filepath.Dir(base), "*.html")

	t, err := template.New(name).Funcs(funcMap()).ParseGlob(pattern)
	if err != nil {
		return nil, err
	}

	if !v.dev {
		v.lru.Add(key, t)
	}
	return t, nil
}

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
