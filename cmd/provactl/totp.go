package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/prova/internal/security/totp"
)

func newTOTPCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "totp", Short: "Utilidades TOTP (debug)"}

	var secret string
	code := &cobra.Command{
		Use:   "code",
		Short: "Imprime el código TOTP vigente para un secreto base32",
		RunE: func(_ *cobra.Command, _ []string) error {
			if secret == "" {
				return fmt.Errorf("--secret es requerido")
			}
			v, err := totp.Code(secret, c.now())
			if err != nil {
				return err
			}
			c.printf("%s\n", v)
			return nil
		},
	}
	code.Flags().StringVar(&secret, "secret", "", "Secreto TOTP en base32")

	cmd.AddCommand(code)
	return cmd
}
