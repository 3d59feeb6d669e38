// Package migrations embeds the goose migrations for the slots table.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
