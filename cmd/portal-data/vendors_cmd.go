package main

import (
	"github.com/spf13/cobra"

	"github.com/utilibill/portal-sdk/modules/vendor"
)

func newVendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Inspect vending agents",
	}
	cmd.AddCommand(newVendorsListCmd())
	return cmd
}

func newVendorsListCmd() *cobra.Command {
	var status, search string
	var areaOffice int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vendors as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			vendors, meta, _, err := vendor.NewClient(api).List(cmd.Context(), vendor.ListQuery{
				Status:       status,
				Search:       search,
				AreaOfficeID: areaOffice,
			})
			if err != nil {
				return err
			}
			for _, v := range vendors {
				if err := writeJSONLine(v); err != nil {
					return err
				}
			}
			return writeJSONLine(meta)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active|suspended)")
	cmd.Flags().StringVar(&search, "search", "", "Match name or code")
	cmd.Flags().Int64Var(&areaOffice, "area-office", 0, "Filter by area office")
	return cmd
}
