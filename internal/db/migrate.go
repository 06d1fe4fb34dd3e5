package db

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies every .sql file in lexical order. When dir points at
// an existing directory its files win over the embedded set, which lets a
// deployment patch the schema without rebuilding the binary.
func RunMigrations(conn *sql.DB, dir string) error {
	names, read, err := migrationSource(dir)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		stmt, err := read(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if len(stmt) == 0 {
			continue
		}
		if _, err := conn.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func migrationSource(dir string) ([]string, func(string) ([]byte, error), error) {
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err == nil {
			var names []string
			for _, e := range entries {
				if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
					names = append(names, e.Name())
				}
			}
			return names, func(name string) ([]byte, error) {
				return os.ReadFile(filepath.Join(dir, name))
			}, nil
		}
		if !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("read migrations dir: %w", err)
		}
	}

	entries, err := embeddedMigrations.ReadDir("migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	return names, func(name string) ([]byte, error) {
		return embeddedMigrations.ReadFile(filepath.Join("migrations", name))
	}, nil
}
