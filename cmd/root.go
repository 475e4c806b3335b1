package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/config"
	"github.com/spigell/resume-scorer/internal/logger"
)

const (
	app = config.AppName
)

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-scorer is a cli for evidence-based scoring of résumés against a job",
		// Errors are logged by the commands themselves.
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "a dotenv file with secrets such as GEMINI_API_KEY")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("metrics-file", "", "write prometheus metrics to this file after the run")

	viper.BindPFlag("logging.debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("logging.json", rootCmd.PersistentFlags().Lookup("json"))
}

// initEnv loads the dotenv file. A missing file is fine; existing variables are never overridden.
func initEnv() {
	if envFile == "" {
		return
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading env file %s: %v", envFile, err)
	}
}

// setup reads the configuration and creates the logger every command works with.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logger.NewWithOptions(logger.Options{
		JSON:  cfg.Logging.JSON,
		Debug: cfg.Logging.Debug,
		Name:  app,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
