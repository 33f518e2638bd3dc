package main

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/utilibill/portal-sdk/modules/billing"
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func newBillingJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing-jobs",
		Short: "Create and inspect billing-generation runs",
	}
	cmd.AddCommand(newBillingJobsCreateCmd())
	cmd.AddCommand(newBillingJobsGetCmd())
	cmd.AddCommand(newBillingJobsListCmd())
	return cmd
}

func newBillingJobsCreateCmd() *cobra.Command {
	var period string
	var areaOffice int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a billing run for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !periodPattern.MatchString(period) {
				return withCode(exitUsage, fmt.Errorf("invalid --period: %q (expected YYYY-MM)", period))
			}
			api, err := apiClient()
			if err != nil {
				return err
			}
			job, _, err := billing.NewClient(api).CreateJob(cmd.Context(), billing.CreateJobParams{
				Period:       period,
				AreaOfficeID: areaOffice,
			})
			if err != nil {
				return err
			}
			return writeJSONLine(job)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Billing period, YYYY-MM (required)")
	cmd.Flags().Int64Var(&areaOffice, "area-office", 0, "Restrict the run to one area office")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func newBillingJobsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one billing job with its progress counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid job id: %q", args[0]))
			}
			api, err := apiClient()
			if err != nil {
				return err
			}
			job, _, err := billing.NewClient(api).GetJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSONLine(job)
		},
	}
}

func newBillingJobsListCmd() *cobra.Command {
	var period, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List billing jobs as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			jobs, meta, _, err := billing.NewClient(api).ListJobs(cmd.Context(), billing.ListQuery{
				Period: period,
				Status: status,
			})
			if err != nil {
				return err
			}
			for _, job := range jobs {
				if err := writeJSONLine(job); err != nil {
					return err
				}
			}
			return writeJSONLine(meta)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Filter by period")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (queued|running|completed|failed)")
	return cmd
}

func newFinalizeCmd() *cobra.Command {
	var period string
	var areaOffice int64

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize drafted bills for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !periodPattern.MatchString(period) {
				return withCode(exitUsage, fmt.Errorf("invalid --period: %q (expected YYYY-MM)", period))
			}
			api, err := apiClient()
			if err != nil {
				return err
			}
			client := billing.NewClient(api)
			params := billing.FinalizeParams{Period: period}

			if areaOffice > 0 {
				bills, msg, err := client.FinalizeAreaOffice(cmd.Context(), areaOffice, params)
				if err != nil {
					return err
				}
				type result struct {
					Status         string `json:"status"`
					Period         string `json:"period"`
					AreaOfficeID   int64  `json:"areaOfficeId"`
					FinalizedCount int    `json:"finalizedCount"`
				}
				return writeJSONLine(result{Status: msg, Period: period, AreaOfficeID: areaOffice, FinalizedCount: len(bills)})
			}

			status, err := client.FinalizePeriod(cmd.Context(), params)
			if err != nil {
				return err
			}
			type result struct {
				Status string `json:"status"`
				Period string `json:"period"`
			}
			return writeJSONLine(result{Status: status, Period: period})
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Billing period, YYYY-MM (required)")
	cmd.Flags().Int64Var(&areaOffice, "area-office", 0, "Finalize one area office only")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}
