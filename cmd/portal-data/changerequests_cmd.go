package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utilibill/portal-sdk/modules/changerequest"
)

func newChangeRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "change-requests",
		Short: "Inspect and resolve change requests",
	}
	cmd.AddCommand(newChangeRequestsListCmd())
	cmd.AddCommand(newChangeRequestsGetCmd())
	cmd.AddCommand(newChangeRequestsApproveCmd())
	cmd.AddCommand(newChangeRequestsDeclineCmd())
	return cmd
}

func newChangeRequestsListCmd() *cobra.Command {
	var status string
	var reference string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List change requests as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			q := changerequest.ListQuery{
				PageNumber: page,
				PageSize:   pageSize,
				Reference:  reference,
			}
			if status != "" {
				parsed, err := parseStatus(status)
				if err != nil {
					return withCode(exitUsage, err)
				}
				q.Status = &parsed
			}

			client := changerequest.NewClient(api)
			items, meta, _, err := client.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			for _, cr := range items {
				if err := writeJSONLine(cr); err != nil {
					return err
				}
			}
			return writeJSONLine(meta)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending|approved|declined)")
	cmd.Flags().StringVar(&reference, "reference", "", "Filter by reference (CR-0001)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Page size")
	return cmd
}

func newChangeRequestsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <public-id-or-reference>",
		Short: "Fetch one change request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			cr, _, err := changerequest.NewClient(api).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSONLine(cr)
		},
	}
}

func newChangeRequestsApproveCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "approve <public-id>",
		Short: "Approve a pending change request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			cr, msg, err := changerequest.NewClient(api).Approve(cmd.Context(), args[0], notes)
			if err != nil {
				return err
			}
			type result struct {
				Status   string `json:"status"`
				PublicID string `json:"publicId"`
				Message  string `json:"message"`
			}
			return writeJSONLine(result{Status: cr.Status.String(), PublicID: cr.PublicID, Message: msg})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Approval notes")
	return cmd
}

func newChangeRequestsDeclineCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "decline <public-id>",
		Short: "Decline a pending change request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(reason) == "" {
				return withCode(exitUsage, fmt.Errorf("--reason is required"))
			}
			api, err := apiClient()
			if err != nil {
				return err
			}
			cr, msg, err := changerequest.NewClient(api).Decline(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			type result struct {
				Status   string `json:"status"`
				PublicID string `json:"publicId"`
				Message  string `json:"message"`
			}
			return writeJSONLine(result{Status: cr.Status.String(), PublicID: cr.PublicID, Message: msg})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Decline reason (required)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func parseStatus(raw string) (changerequest.Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return changerequest.StatusPending, nil
	case "approved":
		return changerequest.StatusApproved, nil
	case "declined":
		return changerequest.StatusDeclined, nil
	}
	return 0, fmt.Errorf("invalid --status: %q (expected pending|approved|declined)", raw)
}
