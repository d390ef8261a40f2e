package main

import (
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

func init() {
	activityCmd := &cobra.Command{Use: "activity", Short: "Donation and collection history"}

	var f types.ActivityFilter
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := client().ListActivity(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	listCmd.Flags().StringVarP(&f.StationID, "station", "s", "", "Filter by station")
	listCmd.Flags().StringVarP(&f.RackID, "rack", "r", "", "Filter by rack")
	listCmd.Flags().StringVarP(&f.ActorID, "user", "u", "", "Filter by actor")
	listCmd.Flags().IntVarP(&f.Limit, "limit", "l", 50, "Maximum entries")
	activityCmd.AddCommand(listCmd)

	rootCmd.AddCommand(activityCmd)
}
