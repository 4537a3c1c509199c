// Package ui carries the fallback client entry document served when no
// static client directory is configured.
package ui

import (
	"embed"
	"io/fs"
)

// Dist embeds dist/. A built client dropped into dist/ before compiling
// replaces the placeholder page.
//
//go:embed all:dist
var Dist embed.FS

// FS returns the embedded files rooted at dist/.
func FS() fs.FS {
	sub, err := fs.Sub(Dist, "dist")
	if err != nil {
		panic(err)
	}
	return sub
}
