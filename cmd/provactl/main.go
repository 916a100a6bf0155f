// provactl opera directamente sobre los stores configurados: estado MFA,
// throttle de login, migraciones y un generador de códigos TOTP para debug.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/prova/internal/app"
	"github.com/dropDatabas3/prova/internal/config"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

type cli struct {
	configPath string
	out        io.Writer
	now        func() time.Time

	// open se reemplaza en tests.
	open func(ctx context.Context, cfg *config.Config) (*app.Container, error)
}

func (c *cli) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// withContainer abre la infraestructura, ejecuta fn y la cierra.
func (c *cli) withContainer(ctx context.Context, fn func(*app.Container) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ct, err := c.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer ct.Close()
	return fn(ct)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "provactl",
		Short:         "Operaciones sobre MFA, throttle y schema de Prova",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "Path al YAML de config (env CONFIG_PATH)")

	root.AddCommand(newMFACmd(c))
	root.AddCommand(newThrottleCmd(c))
	root.AddCommand(newTOTPCmd(c))
	root.AddCommand(newMigrateCmd(c))
	return root
}

func main() {
	_ = godotenv.Load()
	logger.Init(logger.Config{Env: envOr("APP_ENV", "dev"), Level: envOr("LOG_LEVEL", "warn"), ServiceName: "provactl"})

	c := &cli{
		configPath: envOr("CONFIG_PATH", "config/config.yaml"),
		out:        os.Stdout,
		now:        time.Now,
		open:       app.Open,
	}
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
