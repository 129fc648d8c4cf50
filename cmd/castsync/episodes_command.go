package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"castsync/internal/ipc"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes <feed>",
		Short: "List a feed's episode ledger in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Episodes(args[0])
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Episodes) == 0 {
					fmt.Fprintf(stdout, "No episodes recorded for %s\n", args[0])
					return nil
				}

				rows := make([][]string, 0, len(resp.Episodes))
				for i, ep := range resp.Episodes {
					score := ""
					if ep.VideoID != "" {
						score = strconv.FormatFloat(ep.MatchScore, 'f', 2, 64)
					}
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						ep.Filename,
						ep.RemoteTitle,
						ep.VideoID,
						score,
					})
				}
				writeTable(stdout,
					[]string{"#", "Filename", "Title", "Video", "Score"},
					rows, "#", "Score")
				fmt.Fprintf(stdout, "%d episodes\n", len(resp.Episodes))
				return nil
			})
		},
	}
}
