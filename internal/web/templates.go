// Package web holds the local UI's templates and their helpers.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"

	"github.com/gin-contrib/multitemplate"

	"karmafeed/internal/models"
	"karmafeed/internal/utils"
)

//go:embed templates
var templateFS embed.FS

// Pages are the views handlers can render by name.
var Pages = []string{"feed.html", "thread.html", "error.html"}

// FuncMap is shared by every page.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t time.Time) string {
			return utils.TimeAgo(t, time.Now())
		},
		"markdown": utils.RenderMarkdown,
		"canReply": models.CanReply,
		"plural":   utils.Pluralize,
		"shortID":  utils.ShortID,
	}
}

// Renderer assembles each page with the shared layout and components.
func Renderer() (multitemplate.Render, error) {
	r := multitemplate.New()
	components, err := fs.Glob(templateFS, "templates/components/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range Pages {
		files := append([]string{"templates/layouts/base.html"}, components...)
		files = append(files, path.Join("templates", page))
		tmpl, err := template.New("base.html").Funcs(FuncMap()).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.Add(page, tmpl)
	}
	return r, nil
}
