package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"castsync/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [feed]",
		Short: "Trigger an immediate sync pass for one feed or all feeds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed := ""
			if len(args) == 1 {
				feed = strings.TrimSpace(args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sync(feed)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				if feed == "" {
					fmt.Fprintln(stdout, "Sync triggered for all feeds")
				} else {
					fmt.Fprintf(stdout, "Sync triggered for %s\n", feed)
				}
				return nil
			})
		},
	}
}
