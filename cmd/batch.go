package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-scorer/internal/export"
	"github.com/spigell/resume-scorer/internal/metrics"
	"github.com/spigell/resume-scorer/internal/model"
)

var batchJob jobFlags

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Score every résumé in a directory and rank them",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

type batchEntry struct {
	Source string               `json:"source"`
	Result *model.ScoringResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchJob.register(batchCmd)

	batchCmd.Flags().String("pattern", "*.txt", "glob pattern of résumé files inside the directory")
	batchCmd.Flags().String("xlsx", "", "also write the ranking to an Excel workbook")
	batchCmd.Flags().IntP("concurrency", "c", 0, "how many résumés are scored at once (default from batch.concurrency)")

	viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	job, err := batchJob.resolveJob(cfg)
	if err != nil {
		logger.Error("resolving job", zap.Error(err))
		return err
	}

	pattern, _ := cmd.Flags().GetString("pattern")
	files, err := filepath.Glob(filepath.Join(args[0], pattern))
	if err != nil {
		return fmt.Errorf("list resumes: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("no resumes found", zap.String("dir", args[0]), zap.String("pattern", pattern))
		return nil
	}
	sort.Strings(files)

	recorder := metrics.New()
	defer writeMetrics(cmd, recorder, logger)

	eng, err := newEngine(cmd.Context(), cfg, logger, recorder)
	if err != nil {
		return err
	}

	logger.Info("starting the batch",
		zap.Int("resumes", len(files)),
		zap.Int("concurrency", cfg.Batch.Concurrency),
		zap.String("job_family", string(job.Family)),
	)

	rows := make([]export.Row, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Batch.Concurrency)
	for i, file := range files {
		rows[i].Source = filepath.Base(file)
		g.Go(func() error {
			text, err := readResume(file, nil)
			if err == nil {
				rows[i].Result, err = eng.Score(ctx, text, job)
			}
			if err != nil {
				// One bad file does not stop the batch.
				rows[i].Err = err
				logger.Warn("skipping resume", zap.String("file", file), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rankRows(rows)

	failed := 0
	entries := make([]batchEntry, len(rows))
	for i, r := range rows {
		entries[i] = batchEntry{Source: r.Source, Result: r.Result}
		if r.Err != nil {
			entries[i].Error = r.Err.Error()
			failed++
		}
	}

	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		written, err := export.Workbook(rows, path)
		if err != nil {
			logger.Error("writing workbook", zap.Error(err))
			return err
		}
		logger.Info("workbook written", zap.String("path", written))
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	logger.Info("batch finished", zap.Int("scored", len(rows)-failed), zap.Int("failed", failed))
	return nil
}

// rankRows orders scored résumés by total, highest first. Failures go last.
func rankRows(rows []export.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Result, rows[j].Result
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		case a.Total != b.Total:
			return a.Total > b.Total
		default:
			return rows[i].Source < rows[j].Source
		}
	})
}
