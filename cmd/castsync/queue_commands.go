package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"castsync/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the download queue",
	}

	var (
		feedFilter    string
		statusFilters []string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List download queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(feedFilter, statusFilters)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					progress := ""
					if item.Status == "downloading" {
						progress = strconv.FormatFloat(item.ProgressPercent, 'f', 1, 64) + "%"
					}
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.Feed,
						item.Title,
						item.Status,
						progress,
						item.ErrorMessage,
					})
				}
				writeTable(stdout,
					[]string{"ID", "Feed", "Title", "Status", "Progress", "Error"},
					rows, "ID", "Progress")
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&feedFilter, "feed", "", "Restrict to one feed")
	listCmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (queued, downloading, completed, failed)")

	clearCompletedCmd := &cobra.Command{
		Use:     "clear-completed",
		Aliases: []string{"clear"},
		Short:   "Remove completed items from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClearCompleted()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed items\n", resp.Removed)
				return nil
			})
		},
	}

	clearFailedCmd := &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed items from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClearFailed()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d failed items\n", resp.Removed)
				return nil
			})
		},
	}

	queueCmd.AddCommand(listCmd, clearCompletedCmd, clearFailedCmd)
	return queueCmd
}
