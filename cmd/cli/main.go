package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"grouprank/adapters/excel"
	"grouprank/domain/group"
	"grouprank/internal"
	apperrors "grouprank/internal/errors"
	"grouprank/internal/loader"
	"grouprank/internal/submission"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "grouprank-cli",
		Short:         "Inspect image directories and export labeling results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newGroupsCmd(),
		newExportCmd(),
	)
	return rootCmd
}

type groupsOutput struct {
	Directory string        `json:"directory"`
	Source    group.Source  `json:"source"`
	Total     int           `json:"total_groups"`
	Groups    []group.Group `json:"groups"`
}

func newGroupsCmd() *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "groups [dir]",
		Short: "Print the groups a directory would be labeled with",
		Long: `Load a directory exactly like the server does (manifest first, auto-chunking
otherwise) and print the result as JSON.

Example: grouprank-cli groups ./static/images --chunk-size 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			groups, source := loader.New(internal.NewLogger(internal.LogLevelWarn)).Load(dir, chunkSize)
			if groups == nil {
				groups = []group.Group{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(groupsOutput{
				Directory: dir,
				Source:    source,
				Total:     len(groups),
				Groups:    groups,
			})
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", loader.DefaultChunkSize, "Images per group when no manifest is present")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Write results.csv and results.json of a directory as an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.OutOrStdout(), args[0], out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "results.xlsx", "Output workbook path")
	return cmd
}

func runExport(w io.Writer, dir, out string) error {
	rows, rowsErr := submission.ReadFlatLogFile(filepath.Join(dir, submission.FlatLogName))
	results, resultsErr := submission.ReadResultsFile(filepath.Join(dir, submission.ResultsName))

	missing := 0
	for _, err := range []error{rowsErr, resultsErr} {
		switch {
		case err == nil:
		case apperrors.Is(err, apperrors.CodeFileNotFound):
			missing++
		default:
			return err
		}
	}
	if missing == 2 {
		return fmt.Errorf("no results found in %s", dir)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if _, err := excel.NewWriter(rows, results).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	batches := 0
	if results != nil {
		batches = len(results.AllData)
	}
	fmt.Fprintf(w, "Wrote %d submissions and %d batches to %s\n", len(rows), batches, out)
	return nil
}
