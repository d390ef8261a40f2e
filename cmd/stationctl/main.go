package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/foodstation/internal/stationclient"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "stationctl",
		Short: "Admin CLI for the food station backend",
	}
)

func client() *stationclient.Client {
	token := tokenFlag
	if token == "" {
		token = os.Getenv("STATIONCTL_TOKEN")
	}
	return stationclient.New(apiFlag, token)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Food station service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "Admin QR token (or STATIONCTL_TOKEN)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
