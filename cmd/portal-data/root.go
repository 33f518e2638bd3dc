package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/utilibill/portal-sdk/pkg/configuration"
	"github.com/utilibill/portal-sdk/pkg/portalhttp"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "portal-data",
		Short:         "Billing portal data tool: change requests, billing runs, exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newChangeRequestsCmd())
	cmd.AddCommand(newBillingJobsCmd())
	cmd.AddCommand(newFinalizeCmd())
	cmd.AddCommand(newBillsCmd())
	cmd.AddCommand(newVendorsCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

func apiClient() (*portalhttp.Client, error) {
	cfg := configuration.Use()
	client, err := portalhttp.FromConfiguration(cfg)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return client, nil
}
