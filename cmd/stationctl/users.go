package main

import (
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

func init() {
	usersCmd := &cobra.Command{Use: "users", Short: "User operations"}

	var id, name, role, qr string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user and bind a QR token",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := client().AddUser(cmd.Context(), service.RegisterUserRequest{
				ID:          id,
				DisplayName: name,
				Role:        types.Role(role),
				Token:       qr,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	addCmd.Flags().StringVar(&id, "id", "", "User ID (generated when empty)")
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Display name (required)")
	addCmd.Flags().StringVarP(&role, "role", "r", string(types.RoleDonor), "donor | receiver | admin")
	addCmd.Flags().StringVar(&qr, "qr", "", "QR token printed on the user's card (required)")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("qr")
	usersCmd.AddCommand(addCmd)

	rootCmd.AddCommand(usersCmd)
}
