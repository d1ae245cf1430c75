// Package migrations embeds the session cache schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
