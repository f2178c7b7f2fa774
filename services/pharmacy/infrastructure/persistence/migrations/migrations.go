// Package migrations embeds the goose schema for the SQL snapshot backends.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres returns the migrations for the postgres backend.
func Postgres() fs.FS { return sub("postgres") }

// SQLite returns the migrations for the sqlite backend.
func SQLite() fs.FS { return sub("sqlite") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err) // dir is a compile-time constant embedded above
	}
	return f
}
