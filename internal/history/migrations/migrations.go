// Package migrations embeds the history cache schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
