// Package migrations embeds the goose migrations of the credential store schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
