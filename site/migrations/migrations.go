// Package migrations embeds the site schema, one goose directory per dialect.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/candlewaxgames/candlewax/pkg/db"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// FS returns the migrations for dialect.
func FS(dialect db.Dialect) (fs.FS, error) {
	switch dialect {
	case db.DialectPostgres, db.DialectSQLite:
		return fs.Sub(files, string(dialect))
	default:
		return nil, fmt.Errorf("%w: %q", db.ErrUnsupportedDriver, dialect)
	}
}
