package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

func init() {
	stationsCmd := &cobra.Command{Use: "stations", Short: "Station operations"}

	var req service.AddStationRequest
	addCmd := &cobra.Command{
		Use:   "add STATION_ID",
		Short: "Provision a station with its racks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ID = args[0]
			st, err := client().AddStation(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	addCmd.Flags().StringVarP(&req.Name, "name", "n", "", "Display name")
	addCmd.Flags().StringVar(&req.Address, "address", "", "Street address")
	addCmd.Flags().Float64Var(&req.Latitude, "lat", 0, "Latitude")
	addCmd.Flags().Float64Var(&req.Longitude, "lng", 0, "Longitude")
	addCmd.Flags().IntVar(&req.Racks, "racks", 4, "Number of racks (R1..Rn)")
	addCmd.Flags().StringSliceVar(&req.RackIDs, "rack-ids", nil, "Explicit rack ids, overrides --racks")
	stationsCmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stations and rack occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client().ListStations(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tFILLED\tEMPTY")
			for _, st := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", st.ID, st.Name, st.Count(types.FillFilled), st.Count(types.FillEmpty))
			}
			return tw.Flush()
		},
	}
	stationsCmd.AddCommand(listCmd)

	rootCmd.AddCommand(stationsCmd)
}
