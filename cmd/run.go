package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cvscore/cvscore/internal/extraction"
	"github.com/cvscore/cvscore/internal/logger"
	"github.com/cvscore/cvscore/internal/matching"
	"github.com/cvscore/cvscore/internal/oracle"
	"github.com/cvscore/cvscore/internal/oracle/gemini"
	"github.com/cvscore/cvscore/internal/pipeline"
	"github.com/cvscore/cvscore/internal/scoring"
	"github.com/cvscore/cvscore/internal/secrets"
	"github.com/cvscore/cvscore/internal/validation"
)

const (
	PromptRecommendations = "Show recommendations"
	PromptDumpToFile      = "Dump result to file"
	PromptExit            = "Exit"
)

var errExit = errors.New("exit requested")

var resultPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptRecommendations, PromptDumpToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score a CV against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("cv", "", "path to the CV plain-text file")
	runCmd.Flags().String("jd", "", "path to the job description plain-text file")
	runCmd.Flags().StringP("out", "o", "", "write the result JSON to a file instead of the interactive menu")
	runCmd.Flags().BoolP("auto-approve", "y", false, "print the result and exit without the interactive menu")

	runCmd.MarkFlagRequired("cv")
	runCmd.MarkFlagRequired("jd")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting cvscore", zap.String("version", version))

	cvText, err := readDocument(cmd, "cv")
	if err != nil {
		logger.Fatal("reading cv document", zap.Error(err))
	}

	jdText, err := readDocument(cmd, "jd")
	if err != nil {
		logger.Fatal("reading job description document", zap.Error(err))
	}

	weights, err := resolveWeights(config)
	if err != nil {
		logger.Fatal("resolving category weights", zap.Error(err))
	}

	semantic, err := newOracle(ctx, config.Oracle, logger)
	if err != nil {
		logger.Fatal(
			"building the semantic oracle",
			zap.Error(err),
			zap.String("hint", "set oracle.gemini.api-key-file in the configuration file or the GEMINI_API_KEY_FILE environment variable"),
		)
	}

	extractTimeout, compareTimeout := resolveTimeouts(config)

	runner := pipeline.New(
		extraction.New(semantic, extractTimeout, logger),
		matching.New(semantic, compareTimeout, logger),
		validation.New(logger),
		scoring.New(weights, resolveBonus(config)),
		logger,
	)

	result, err := runner.Run(ctx, cvText, jdText)
	if err != nil {
		var extractionErr *extraction.Error
		if errors.As(err, &extractionErr) {
			logger.Fatal("document could not be processed",
				zap.String("role", string(extractionErr.Role)),
				zap.Error(extractionErr.Err),
			)
		}
		logger.Fatal("run failed", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("encoding result", zap.Error(err))
	}

	if out := cmd.Flag("out").Value.String(); out != "" {
		if err := os.WriteFile(out, pretty, 0o644); err != nil {
			logger.Fatal("writing result file", zap.Error(err))
		}
		logger.Info("result written", zap.String("filename", out))
		return
	}

	fmt.Println(string(pretty))

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return
	}

	for {
		_, action, err := resultPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, result, pretty, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, result *pipeline.Result, pretty []byte, logger *zap.Logger) error {
	switch action {
	case PromptRecommendations:
		if len(result.Recommendations) == 0 {
			logger.Info("no recommendations, every job requirement is covered")
			return nil
		}
		for _, recommendation := range result.Recommendations {
			fmt.Println("-", recommendation)
		}
		return nil
	case PromptDumpToFile:
		file, err := os.CreateTemp("", app+"-result-*.json")
		if err != nil {
			return fmt.Errorf("create result file: %w", err)
		}
		defer file.Close()

		if _, err := file.Write(pretty); err != nil {
			return fmt.Errorf("write result file: %w", err)
		}

		logger.Info("dumping result to file", zap.String("filename", file.Name()))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func readDocument(cmd *cobra.Command, flag string) (string, error) {
	path := strings.TrimSpace(cmd.Flag(flag).Value.String())
	if path == "" {
		return "", fmt.Errorf("--%s is required", flag)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func newOracle(ctx context.Context, cfg *OracleConfig, log *zap.Logger) (oracle.Oracle, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("oracle.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	oracleLogger := logger.WithOracleFields(log, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, oracleLogger)
	if err != nil {
		return nil, err
	}

	return gemini.New(generator, oracleLogger, cfg.Gemini.MaxLogLength), nil
}
