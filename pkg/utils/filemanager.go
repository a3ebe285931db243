// =============================================================================
// Shipment Report - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a run:
//   - Source discovery (files and directories given on the command line)
//   - Output file naming
//   - Archival of merged source files
//
// ARCHIVAL STRATEGY:
//   - Source files are moved to the archive directory after the report that
//     includes them has been written
//   - Files that failed to parse stay where they are
//   - An existing file in the archive is never overwritten; the archived copy
//     gets a numeric suffix instead
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrNoInputFiles is returned when discovery finds nothing to process.
var ErrNoInputFiles = eris.New("no input files found")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations around a run.
type FileManager struct {
	// OutputDir is the directory where reports are written.
	OutputDir string

	// ArchiveDir receives merged source files. Empty disables archival.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/orders.csv
	UseTimestampSubdirs bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a FileManager for the given directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// EnsureDirectories creates the output and archive directories.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "create directory %s", dir)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles expands command-line arguments into source files.
//
// PARAMETERS:
//   - paths: Files, directories or glob patterns.
//   - pattern: The glob matched inside directories (e.g., "*.csv").
//              If empty, defaults to "*.csv".
//
// RETURNS:
//   - The files, deduplicated, in argument order; files found in one
//     directory are sorted by name.
//   - ErrNoInputFiles if nothing matches, or an error for a missing path.
func DiscoverInputFiles(paths []string, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.csv"
	}

	seen := make(map[string]bool)
	var result []string
	add := func(p string) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			result = append(result, clean)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err == nil && info.IsDir():
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, eris.Wrapf(err, "scan directory %s", p)
			}
			sort.Strings(matches)
			for _, m := range matches {
				if isRegularFile(m) {
					add(m)
				}
			}

		case err == nil:
			add(p)

		case os.IsNotExist(err) && strings.ContainsAny(p, "*?["):
			matches, gerr := filepath.Glob(p)
			if gerr != nil {
				return nil, eris.Wrapf(gerr, "expand pattern %s", p)
			}
			sort.Strings(matches)
			for _, m := range matches {
				if isRegularFile(m) {
					add(m)
				}
			}

		default:
			return nil, eris.Wrapf(err, "input %s", p)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoInputFiles
	}
	return result, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a source file to the archive directory.
//
// RETURNS:
//   - The path of the archived file, or filePath unchanged when archival is
//     disabled.
//   - An error if the file cannot be moved.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return filePath, nil
	}

	archivePath := uniquePath(fm.getArchivePath(filePath))
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", eris.Wrap(err, "create archive directory")
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", eris.Wrapf(err, "copy %s to archive", filePath)
		}
		if err := os.Remove(filePath); err != nil {
			return "", eris.Wrapf(err, "remove %s", filePath)
		}
	}

	return archivePath, nil
}

func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// uniquePath appends _1, _2, ... before the extension until the path is free.
func uniquePath(path string) string {
	if !FileExists(path) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !FileExists(candidate) {
			return candidate
		}
	}
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputPath returns the path of a new report in the output directory.
func (fm *FileManager) OutputPath(format, period string) string {
	name := GenerateOutputFileName(format, map[string]string{"period": period}, fm.clock())
	return filepath.Join(fm.OutputDir, name)
}

// GenerateOutputFileName builds a report file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - YYYYMMDD_HHMMSS
//               {date}      - YYYYMMDD
//               {time}      - HHMMSS
//               {period}    - daily or monthly (from params)
//   - params: Extra placeholder values.
//   - now: The time used for the date placeholders.
//
// RETURNS:
//   - The file name, always ending in .xlsx.
//
// EXAMPLE:
//   format: "{period}_report_{date}.xlsx"
//   params: {"period": "daily"}
//   output: "daily_report_20240115.xlsx"
func GenerateOutputFileName(format string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	if strings.Contains(result, "{uuid}") {
		result = strings.ReplaceAll(result, "{uuid}", uuid.New().String())
	}
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
