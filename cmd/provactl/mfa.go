package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/prova/internal/app"
	"github.com/dropDatabas3/prova/internal/audit"
	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

func newMFACmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "mfa", Short: "Estado y reset del segundo factor de un usuario"}

	var statusUser string
	status := &cobra.Command{
		Use:   "status",
		Short: "Muestra el estado MFA (not_set_up | pending | enabled)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if statusUser == "" {
				return fmt.Errorf("--user es requerido")
			}
			return c.withContainer(cmd.Context(), func(ct *app.Container) error {
				st, err := ct.Store.MFA().GetMFA(cmd.Context(), statusUser)
				if err != nil {
					return err
				}
				switch s := st.(type) {
				case repository.MFAEnabled:
					c.printf("user=%s state=enabled backup_codes=%d\n", statusUser, len(s.BackupCodeHashes))
				case repository.MFAPending:
					c.printf("user=%s state=pending\n", statusUser)
				default:
					c.printf("user=%s state=not_set_up\n", statusUser)
				}
				return nil
			})
		},
	}
	status.Flags().StringVar(&statusUser, "user", "", "ID del usuario")

	var disableUser string
	disable := &cobra.Command{
		Use:   "disable",
		Short: "Deshabilita MFA sin pedir código (soporte)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if disableUser == "" {
				return fmt.Errorf("--user es requerido")
			}
			return c.withContainer(cmd.Context(), func(ct *app.Container) error {
				if err := ct.Store.MFA().Disable(cmd.Context(), disableUser); err != nil {
					return err
				}
				audit.Log(cmd.Context(), audit.EventAdminMFADisabled, logger.UserID(disableUser))
				c.printf("user=%s mfa disabled\n", disableUser)
				return nil
			})
		},
	}
	disable.Flags().StringVar(&disableUser, "user", "", "ID del usuario")

	cmd.AddCommand(status, disable)
	return cmd
}
