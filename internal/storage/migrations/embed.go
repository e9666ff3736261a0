package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// PostgresFS holds the postgres ledger and signal schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the execution report schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// migration is one embedded SQL file.
type migration struct {
	name string
	sql  string
}

// load returns the non-empty .sql files under dir in lexical order.
func load(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, migration{name: name, sql: string(data)})
	}
	return out, nil
}
