// Package mail embeds the site's email templates.
package mail

import "embed"

// FS holds the markdown templates at its root and their layouts in layouts/.
//
//go:embed *.md layouts/*.html
var FS embed.FS
