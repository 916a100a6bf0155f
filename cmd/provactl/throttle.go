package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/prova/internal/app"
	"github.com/dropDatabas3/prova/internal/audit"
	"github.com/dropDatabas3/prova/internal/observability/logger"
	"github.com/dropDatabas3/prova/internal/rate"
)

func newThrottleCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "throttle", Short: "Contador de logins fallidos por email"}

	var statusEmail string
	status := &cobra.Command{
		Use:   "status",
		Short: "Muestra intentos fallidos y si el email está bloqueado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if statusEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			return c.withContainer(cmd.Context(), func(ct *app.Container) error {
				att, err := ct.Throttle.Inspect(cmd.Context(), statusEmail)
				if err != nil {
					return err
				}
				blocked := att.Count >= ct.Config.Throttle.MaxFailures
				c.printf("email=%s attempts=%d blocked=%t expires_in=%s\n",
					rate.ThrottleKey(statusEmail), att.Count, blocked, att.Expires.Round(time.Second))
				return nil
			})
		},
	}
	status.Flags().StringVar(&statusEmail, "email", "", "Email del usuario")

	var resetEmail string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Limpia el contador (desbloquea el email)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if resetEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			return c.withContainer(cmd.Context(), func(ct *app.Container) error {
				if err := ct.Throttle.Reset(cmd.Context(), resetEmail); err != nil {
					return err
				}
				audit.Log(cmd.Context(), audit.EventThrottleReset, logger.Email(resetEmail))
				c.printf("email=%s throttle reset\n", rate.ThrottleKey(resetEmail))
				return nil
			})
		},
	}
	reset.Flags().StringVar(&resetEmail, "email", "", "Email del usuario")

	cmd.AddCommand(status, reset)
	return cmd
}
