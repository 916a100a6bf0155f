package main

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	migrations "github.com/dropDatabas3/prova/migrations/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down] [steps]",
		Short:     "Aplica las migraciones embebidas sobre storage.dsn",
		Args:      cobra.RangeArgs(0, 2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			steps := 0
			if len(args) >= 1 {
				action = strings.ToLower(args[0])
			}
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 0 {
					return fmt.Errorf("steps inválido: %q", args[1])
				}
				steps = n
			}
			files, err := planMigrations(migrations.FS, action, steps)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				c.printf("nothing to do\n")
				return nil
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual %q)", cfg.Storage.Driver)
			}
			pool, err := pgxpool.New(cmd.Context(), cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			for _, f := range files {
				if err := c.execSQLFile(cmd.Context(), pool, f); err != nil {
					return fmt.Errorf("%s: %w", f, err)
				}
			}
			c.printf("%s: %d migration(s) applied\n", action, len(files))
			return nil
		},
	}
}

// planMigrations lista los *_up.sql en orden ascendente o los *_down.sql en
// orden inverso. steps=0 significa todos.
func planMigrations(fsys fs.FS, action string, steps int) ([]string, error) {
	var suffix string
	switch action {
	case "up":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return nil, fmt.Errorf("acción desconocida %q: usar up | down [steps]", action)
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	if action == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(out)))
	}
	if steps > 0 && steps < len(out) {
		out = out[:steps]
	}
	return out, nil
}

func (c *cli) execSQLFile(ctx context.Context, pool *pgxpool.Pool, name string) error {
	b, err := fs.ReadFile(migrations.FS, name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	start := time.Now()
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	c.printf("OK %s (%s)\n", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}
