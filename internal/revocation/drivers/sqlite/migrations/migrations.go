// Package migrations embeds the revocation schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
