package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"castsync/internal/ipc"
)

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity [feed]",
		Short: "Show the most recent activity log events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed := ""
			if len(args) == 1 {
				feed = args[0]
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Activity(feed, limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Events) == 0 {
					fmt.Fprintln(stdout, "No activity recorded")
					return nil
				}
				for _, event := range resp.Events {
					fmt.Fprintf(stdout, "%s  %-12s %-20s %s\n",
						event.CreatedAt, event.Feed, event.EventType, event.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of events to show")
	return cmd
}
