package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"castsync/internal/batch"
	"castsync/internal/matcher"
)

// newMatchCommand groups the offline matching modes. They operate on a
// playlist title dump and a directory listing, sharing report artifacts
// through the working directory, and never touch the daemon.
func newMatchCommand() *cobra.Command {
	matchCmd := &cobra.Command{
		Use:         "match",
		Short:       "Offline playlist-to-file matching utilities",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	matchCmd.AddCommand(newMatchRunCommand())
	matchCmd.AddCommand(newMatchRenameCommand())
	matchCmd.AddCommand(newMatchScriptCommand())
	matchCmd.AddCommand(newMatchMapfileCommand())
	matchCmd.AddCommand(newMatchReverseCommand())

	return matchCmd
}

func newMatchRunCommand() *cobra.Command {
	var channelSuffix string
	var titlesPath string
	var filesPath string
	var reportPath string
	var mappingPath string

	cmd := &cobra.Command{
		Use:   "run --titles <titles.json> --files <files.txt>",
		Short: "Match playlist titles against a file listing",
		Long: "Match playlist titles (a JSON array, Private/Deleted entries skipped)\n" +
			"against a file listing (ls -la output or bare filenames, one per line).\n" +
			"Use --files - to read the listing from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			titles, err := loadPlaylistTitles(titlesPath)
			if err != nil {
				return err
			}
			files, err := loadFileListing(filesPath)
			if err != nil {
				return err
			}

			result := batch.MatchTitles(titles, files, matcher.Options{ChannelSuffix: channelSuffix})

			if err := batch.WriteReport(reportPath, result.Entries); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if err := batch.WriteMapping(mappingPath, result.Entries); err != nil {
				return fmt.Errorf("write mapping: %w", err)
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Matched %d of %d titles against %d files\n",
				len(result.Entries), len(titles), len(files))
			fmt.Fprintf(stdout, "Average score: %.3f\n", result.AverageScore())

			if low := result.LowConfidence(); len(low) > 0 {
				fmt.Fprintf(stdout, "\n%d low-confidence matches (score < %.2f):\n", len(low), batch.LowConfidenceScore)
				for _, entry := range low {
					fmt.Fprintf(stdout, "  %.3f  %q -> %s\n", entry.Score, entry.VideoTitle, entry.MatchedFilename)
				}
			}
			if len(result.UnmatchedTitles) > 0 {
				fmt.Fprintf(stdout, "\n%d titles without a file:\n", len(result.UnmatchedTitles))
				for _, title := range result.UnmatchedTitles {
					fmt.Fprintf(stdout, "  %s\n", title)
				}
			}
			if len(result.UnmatchedFiles) > 0 {
				fmt.Fprintf(stdout, "\n%d files without a title:\n", len(result.UnmatchedFiles))
				for _, file := range result.UnmatchedFiles {
					fmt.Fprintf(stdout, "  %s\n", file)
				}
			}

			fmt.Fprintf(stdout, "\nWrote %s and %s\n", reportPath, mappingPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&channelSuffix, "channel-suffix", "", "Trailing \"| CHANNEL\" marker stripped from titles before matching")
	cmd.Flags().StringVar(&titlesPath, "titles", "", "Playlist titles JSON file")
	cmd.Flags().StringVar(&filesPath, "files", "", "File listing (- for stdin)")
	cmd.Flags().StringVar(&reportPath, "out", batch.DefaultReportFile, "Report output path")
	cmd.Flags().StringVar(&mappingPath, "map", batch.DefaultMappingFile, "Readable mapping output path")
	_ = cmd.MarkFlagRequired("titles")
	_ = cmd.MarkFlagRequired("files")
	return cmd
}

func newMatchRenameCommand() *cobra.Command {
	var reportPath string
	var dir string
	var padWidth int
	var execute bool

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Prefix matched files with their playlist order",
		Long: "Prefix matched files with a zero-padded order number taken from the\n" +
			"match report. Dry-run by default; pass --execute to touch the disk.",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := batch.LoadReport(reportPath)
			if err != nil {
				return fmt.Errorf("load report: %w", err)
			}

			summary := batch.RenameFiles(entries, dir, padWidth, execute)

			stdout := cmd.OutOrStdout()
			mode := "dry-run"
			if execute {
				mode = "executed"
			}
			for _, action := range summary.Actions {
				switch {
				case action.Err != nil:
					fmt.Fprintf(stdout, "ERROR %s: %v\n", action.OldName, action.Err)
				case action.Skipped:
					fmt.Fprintf(stdout, "skip  %s (already prefixed)\n", action.OldName)
				default:
					fmt.Fprintf(stdout, "%s -> %s\n", action.OldName, action.NewName)
				}
			}
			fmt.Fprintf(stdout, "\n%s: %d renamed, %d skipped, %d errors\n",
				mode, summary.Renamed, summary.Skipped, summary.Errors)
			if !execute {
				fmt.Fprintln(stdout, "Run again with --execute to apply")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", batch.DefaultReportFile, "Match report path")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory containing the files")
	cmd.Flags().IntVar(&padWidth, "pad", batch.DefaultPadWidth, "Zero-padding width for order prefixes")
	cmd.Flags().BoolVar(&execute, "execute", false, "Apply the renames instead of previewing them")
	return cmd
}

func newMatchScriptCommand() *cobra.Command {
	var reportPath string
	var dir string
	var padWidth int
	var outputPath string

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Generate a shell script that applies the renames",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := batch.LoadReport(reportPath)
			if err != nil {
				return fmt.Errorf("load report: %w", err)
			}
			if err := batch.WriteScript(outputPath, entries, dir, padWidth); err != nil {
				return fmt.Errorf("write script: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d entries)\n", outputPath, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", batch.DefaultReportFile, "Match report path")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory containing the files")
	cmd.Flags().IntVar(&padWidth, "pad", batch.DefaultPadWidth, "Zero-padding width for order prefixes")
	cmd.Flags().StringVarP(&outputPath, "output", "o", batch.DefaultScriptFile, "Script output path")
	return cmd
}

func newMatchMapfileCommand() *cobra.Command {
	var reportPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "mapfile",
		Short: "Write matched filenames in playlist order, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := batch.LoadReport(reportPath)
			if err != nil {
				return fmt.Errorf("load report: %w", err)
			}
			if err := batch.WriteMapFile(outputPath, entries); err != nil {
				return fmt.Errorf("write map file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d entries)\n", outputPath, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", batch.DefaultReportFile, "Match report path")
	cmd.Flags().StringVarP(&outputPath, "output", "o", batch.DefaultMapFile, "Map file output path")
	return cmd
}

func newMatchReverseCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "reverse <file>",
		Short: "Reverse the line order of a map file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := batch.ReverseFile(args[0], outputPath)
			if err != nil {
				return fmt.Errorf("reverse file: %w", err)
			}
			target := outputPath
			if target == "" {
				target = args[0]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reversed %d lines into %s\n", count, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (default: reverse in place)")
	return cmd
}

func loadPlaylistTitles(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open titles file: %w", err)
	}
	defer file.Close()
	titles, err := batch.ParsePlaylistTitles(file)
	if err != nil {
		return nil, fmt.Errorf("parse titles from %s: %w", filepath.Base(path), err)
	}
	return titles, nil
}

func loadFileListing(path string) ([]batch.ListedFile, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file listing: %w", err)
		}
		defer file.Close()
		reader = file
	}
	files, err := batch.ParseFileListing(reader)
	if err != nil {
		return nil, fmt.Errorf("parse file listing: %w", err)
	}
	return files, nil
}
