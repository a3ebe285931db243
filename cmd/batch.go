package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/csvparser"
	"github.com/ginjaninja78/shipment-report/internal/engine"
	"github.com/ginjaninja78/shipment-report/internal/model"
	"github.com/ginjaninja78/shipment-report/internal/reportloader"
	"github.com/ginjaninja78/shipment-report/internal/validation"
	"github.com/ginjaninja78/shipment-report/pkg/utils"
)

// =============================================================================
// BATCH FLAGS
// =============================================================================

// batchFlags are the flags shared by merge and preview.
type batchFlags struct {
	existing    string
	period      string
	concurrency int
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.existing, "existing", "e", "", "Previously produced report to merge into")
	cmd.Flags().StringVarP(&f.period, "period", "p", string(engine.PeriodDaily), "Statistics period: daily or monthly")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Source files parsed at once (default from config)")
}

// =============================================================================
// BATCH RUN
// =============================================================================

// batch is the outcome of loading every source and running the engine.
type batch struct {
	mode     engine.PeriodMode
	inputs   []string
	used     []string
	files    []engine.FileInfo
	existing *model.ExistingReport
	result   *engine.Result
}

// runBatch discovers and parses the sources, merges them into one session
// and runs the engine against the existing report.
//
// PROCESSING PIPELINE:
//   1. Discover source files from the arguments
//   2. Load the existing report (a failure here aborts the batch)
//   3. For each source (concurrently, bounded):
//      a. Parse the CSV
//      b. Validate the header
//   4. Merge the parsed sources into the session in argument order.
//      A source that failed a or b is listed and skipped.
//   5. Run the engine on a snapshot of the session
func runBatch(ctx context.Context, c *config.Config, flags batchFlags, args []string) (*batch, error) {
	start := time.Now()

	mode := engine.PeriodMode(flags.period)
	if !mode.Valid() {
		return nil, eris.Errorf("invalid --period %q: want daily or monthly", flags.period)
	}

	inputs, err := utils.DiscoverInputFiles(args, "*.csv")
	if err != nil {
		return nil, err
	}
	zap.L().Info("batch: sources found", zap.Int("files", len(inputs)))

	var existing *model.ExistingReport
	if flags.existing != "" {
		existing, err = reportloader.Load(flags.existing)
		if err != nil {
			return nil, err
		}
		zap.L().Info("batch: existing report loaded",
			zap.String("path", flags.existing),
			zap.Strings("sheets", existing.SheetNames),
		)
	}

	limit := c.Processing.MaxConcurrency
	if flags.concurrency > 0 {
		limit = flags.concurrency
	}

	sources := make([]*csvparser.CSVData, len(inputs))
	failures := make([]error, len(inputs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			sources[i], failures[i] = parseSource(c, path)
			return nil
		})
	}
	_ = g.Wait()

	// Sources are merged in argument order: when two files carry the same
	// order, the earlier file supplies its mother row and columns.
	acc := engine.NewAccumulator(c, zap.L())
	ok := make([]bool, len(inputs))
	for i, path := range inputs {
		name := filepath.Base(path)
		if failures[i] != nil {
			zap.L().Warn("batch: source skipped", zap.String("file", name), zap.Error(failures[i]))
			acc.RecordFailure(name, failures[i])
			continue
		}
		data := sources[i]
		acc.AddFile(data.SourceFile, data.Headers, data.Rows)
		ok[i] = true
	}

	opts := engine.OptionsFromConfig(c, mode)
	opts.Logger = zap.L()

	result, err := engine.Run(acc.Snapshot(), existing, opts)
	if err != nil {
		return nil, err
	}

	b := &batch{
		mode:     mode,
		inputs:   inputs,
		files:    acc.Files(),
		existing: existing,
		result:   result,
	}
	for i, path := range inputs {
		if ok[i] {
			b.used = append(b.used, path)
		}
	}

	zap.L().Info("batch: complete",
		zap.Int("files", len(inputs)),
		zap.Int("used", len(b.used)),
		zap.Int("skipped_duplicates", result.Stats.SkippedDuplicates),
		zap.Int("unclassified", result.Stats.UnclassifiedOrders),
		zap.Int("periods", result.Stats.Periods),
		zap.Duration("elapsed", time.Since(start)),
	)

	return b, nil
}

// parseSource parses and validates one source file. Header warnings are
// logged; a file that cannot be used is returned as an error.
func parseSource(c *config.Config, path string) (*csvparser.CSVData, error) {
	name := filepath.Base(path)

	data, err := csvparser.ParseFile(path, c.CSV)
	if err != nil {
		return nil, err
	}

	res := validation.ValidateHeaders(data.Headers, c.Fields)
	for _, w := range res.Warnings() {
		zap.L().Warn("batch: source header", zap.String("file", name), zap.String("issue", w.Error()))
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	return data, nil
}
