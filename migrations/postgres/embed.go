// Package migrations embeds the Postgres schema migrations applied by provactl.
package migrations

import "embed"

// FS contains *_up.sql / *_down.sql files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
