// Package web embeds the dashboard's page templates and static assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the stylesheet and other assets served under /static/.
func StaticFS() fs.FS { return mustSub("static") }

// TemplatesFS returns the layout and page templates.
func TemplatesFS() fs.FS { return mustSub("templates") }

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s directory: %v", dir, err))
	}
	return sub
}
