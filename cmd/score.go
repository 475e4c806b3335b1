package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/metrics"
)

var scoreJob jobFlags

var scoreCmd = &cobra.Command{
	Use:   "score [resume.txt]",
	Short: "Score one résumé and print the result as JSON",
	Long: "Score one plain-text résumé against the job given by flags or the job section of the config.\n" +
		"The résumé is read from stdin when no file is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreJob.register(scoreCmd)
	scoreCmd.Flags().Bool("compact", false, "print the result on a single line")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	job, err := scoreJob.resolveJob(cfg)
	if err != nil {
		logger.Error("resolving job", zap.Error(err))
		return err
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	text, err := readResume(path, cmd.InOrStdin())
	if err != nil {
		logger.Error("reading resume", zap.Error(err))
		return err
	}

	recorder := metrics.New()
	defer writeMetrics(cmd, recorder, logger)

	eng, err := newEngine(cmd.Context(), cfg, logger, recorder)
	if err != nil {
		return err
	}

	res, err := eng.Score(cmd.Context(), text, job)
	if err != nil {
		return err
	}

	var out []byte
	if compact, _ := cmd.Flags().GetBool("compact"); compact {
		out, err = json.Marshal(res)
	} else {
		out, err = json.MarshalIndent(res, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
