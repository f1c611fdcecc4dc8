// Package migrations embeds the goose schema migrations for every
// supported store. Each dialect lives in its own directory.
package migrations

import "embed"

//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	MySQLDir    = "mysql"
)
