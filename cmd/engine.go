package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/ai/gemini"
	"github.com/spigell/resume-scorer/internal/config"
	"github.com/spigell/resume-scorer/internal/engine"
	"github.com/spigell/resume-scorer/internal/jobs"
	"github.com/spigell/resume-scorer/internal/metrics"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/secrets"
)

// newEngine builds the scoring engine. The chat backend is created lazily so that a missing
// API key only degrades ai_review to the template.
func newEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger, recorder *metrics.Recorder) (*engine.Engine, error) {
	opts := []engine.Option{engine.WithLogger(logger), engine.WithObserver(recorder)}
	if cfg.LLM.Enabled {
		opts = append(opts, engine.WithBackend(newChatBackend(ctx, cfg.LLM, logger)))
		logger.Info("ai review enabled",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
			zap.Int("ai_retry_attempts", cfg.LLM.MaxRetries),
		)
	}
	return engine.New(cfg, opts...)
}

func newChatBackend(ctx context.Context, cfg config.LLM, logger *zap.Logger) ai.ChatBackend {
	return ai.NewLazyBackend(func() (ai.ChatBackend, error) {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  cfg.APIKeyFile,
			Value: cfg.APIKey,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			logger.Warn("chat backend is not available", zap.Error(err))
			return nil, fmt.Errorf("%w (set llm.api-key-file or GEMINI_API_KEY)", err)
		}

		generator, err := gemini.NewGenerator(ctx, gemini.Options{
			APIKey:       apiKey,
			Model:        cfg.Model,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return generator, nil
	})
}

type jobFlags struct {
	title       string
	jd          string
	jdFile      string
	family      string
	interactive bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "job title (overrides job.title from the config)")
	cmd.Flags().StringVar(&f.jd, "jd", "", "job description text (overrides job.jd from the config)")
	cmd.Flags().StringVar(&f.jdFile, "jd-file", "", "read the job description from a file")
	cmd.Flags().StringVar(&f.family, "family", "", "force a job family: "+strings.Join(jobs.FamilyNames(), ", "))
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "ask for the job family when the title does not reveal it")
}

// resolveJob merges the config job section with the flags. Flags win.
func (f *jobFlags) resolveJob(cfg *config.Config) (model.Job, error) {
	spec, err := cfg.JobSpec()
	if err != nil {
		return model.Job{}, err
	}
	if f.title != "" {
		spec.Title = f.title
	}
	if f.jd != "" {
		spec.JD = f.jd
	}
	if f.jdFile != "" {
		data, err := os.ReadFile(f.jdFile)
		if err != nil {
			return model.Job{}, fmt.Errorf("read job description: %w", err)
		}
		spec.JD = string(data)
	}
	if f.family != "" {
		spec.Family = f.family
	}

	job, err := jobs.FromSpec(spec)
	if err != nil {
		return model.Job{}, err
	}
	if f.interactive && job.Family == model.FamilyGeneric && spec.Family == "" {
		family, err := promptFamily(job.Title)
		if err != nil {
			return model.Job{}, err
		}
		job = jobs.WithFamily(job.Title, job.JDText, family)
	}
	return job, nil
}

func promptFamily(title string) (model.Family, error) {
	label := "Job family"
	if title != "" {
		label = fmt.Sprintf("Job family for %q", title)
	}
	prompt := promptui.Select{
		Label: label,
		Items: jobs.FamilyNames(),
	}
	_, selected, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("select job family: %w", err)
	}
	return jobs.ParseFamily(selected)
}

// readResume reads a résumé from path, or from stdin when path is empty or "-". Only plain
// text is accepted; extraction from PDF or Office files happens upstream.
func readResume(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return string(data), nil
	}

	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return "", fmt.Errorf("resume %s is %s, plain text is required", displayName(path), mtype.String())
	}
	return string(data), nil
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "from stdin"
	}
	return path
}

func writeMetrics(cmd *cobra.Command, recorder *metrics.Recorder, logger *zap.Logger) {
	path, _ := cmd.Flags().GetString("metrics-file")
	if path == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		logger.Error("writing metrics", zap.Error(err))
		return
	}
	logger.Debug("metrics written", zap.String("path", path))
}
