// Package migrations embeds the run journal schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
