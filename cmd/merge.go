// =============================================================================
// Shipment Report - Merge Command
// =============================================================================
//
// This file defines the 'merge' command, which writes the merged report.
//
// COMMAND USAGE:
//   shipreport merge [flags] <csv files, directories or patterns...>
//
// FLAGS:
//   --existing, -e : Earlier report; its payment ids are skipped and its rows
//                    are kept after the new ones
//   --period, -p   : daily (default) or monthly statistics
//   --out, -o      : Output path (default: output.dir + output.filename_format)
//   --archive      : Move merged sources to output.archive_dir afterwards
//                    (under YYYY/MM/DD when output.archive_date_dirs is set)
//   --concurrency  : Sources parsed at once
//
// On success the counts that affect the numbers (skipped duplicates,
// unclassified and motherless orders, skipped files) are printed.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/shipment-report/internal/reportwriter"
	"github.com/ginjaninja78/shipment-report/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var mergeFlags batchFlags

// outPath overrides the generated output path.
var outPath string

// archive moves merged sources to the archive directory.
var archive bool

// =============================================================================
// MERGE COMMAND DEFINITION
// =============================================================================

var mergeCmd = &cobra.Command{
	Use:   "merge [flags] <sources...>",
	Short: "Merge order exports into an XLSX report",
	Long: `The merge command reads every source, merges it with the existing report
(if given) and writes a new report. The existing report is never modified.

A source that cannot be parsed, or lacks the order number column, is listed
and skipped; the other sources are still merged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeFlags.register(mergeCmd)
	mergeCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output report path")
	mergeCmd.Flags().BoolVar(&archive, "archive", false, "Move merged sources to the archive directory")
}

// =============================================================================
// MAIN MERGE FUNCTION
// =============================================================================

func runMerge(cmd *cobra.Command, args []string) error {
	if archive && cfg.Output.ArchiveDir == "" {
		return eris.New("--archive needs output.archive_dir to be configured")
	}

	b, err := runBatch(cmd.Context(), cfg, mergeFlags, args)
	if err != nil {
		return err
	}
	if len(b.used) == 0 {
		return eris.New("no source could be read; nothing merged")
	}

	fm := utils.NewFileManager(cfg.Output.Dir, "")
	if archive {
		fm.ArchiveDir = cfg.Output.ArchiveDir
		fm.UseTimestampSubdirs = cfg.Output.ArchiveDateDirs
	}
	path := outPath
	if path == "" {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		path = fm.OutputPath(cfg.Output.FilenameFormat, string(b.mode))
	}

	if err := reportwriter.WriteFile(path, b.result, reportwriter.DefaultWriteOptions()); err != nil {
		return err
	}
	zap.L().Info("merge: report written", zap.String("path", path))

	out := cmd.OutOrStdout()
	if err := reportwriter.RenderStats(out, b.result, b.files); err != nil {
		return eris.Wrap(err, "print stats")
	}
	fmt.Fprintf(out, "\nReport written to %s\n", path)

	if archive {
		for _, src := range b.used {
			dst, err := fm.ArchiveInputFile(src)
			if err != nil {
				// The report is written; a source left in place can be archived later.
				zap.L().Error("merge: archive failed", zap.String("file", src), zap.Error(err))
				continue
			}
			fmt.Fprintf(out, "Archived %s -> %s\n", src, dst)
		}
	}

	return nil
}
