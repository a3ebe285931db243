// =============================================================================
// Shipment Report - Main Entry Point
// =============================================================================
//
// USAGE:
//   shipreport merge     - Merge order exports into an XLSX report
//   shipreport preview   - Print what a merge would produce
//   shipreport config    - Print the effective configuration
//   shipreport version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : parsing, the merge engine and the report writer
//   - pkg/       : file handling utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/shipment-report/cmd"
)

func main() {
	cmd.Execute()
}
