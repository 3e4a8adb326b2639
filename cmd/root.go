package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/scoring"
)

const (
	app = "cvscore"
)

type Config struct {
	Weights  map[string]float64 `mapstructure:"weights"`
	Bonus    *BonusConfig       `mapstructure:"bonus"`
	Timeouts *TimeoutsConfig    `mapstructure:"timeouts"`
	Oracle   *OracleConfig      `mapstructure:"oracle"`
}

type BonusConfig struct {
	RequiredDelta          *float64 `mapstructure:"required-delta" validate:"omitempty,gte=0"`
	PreferredDelta         *float64 `mapstructure:"preferred-delta" validate:"omitempty,gte=0"`
	MissingRequiredPenalty *float64 `mapstructure:"missing-required-penalty" validate:"omitempty,gte=0"`
	Required               []string `mapstructure:"required"`
	Preferred              []string `mapstructure:"preferred"`
}

type TimeoutsConfig struct {
	Extract time.Duration `mapstructure:"extract" validate:"omitempty,gte=0"`
	Compare time.Duration `mapstructure:"compare" validate:"omitempty,gte=0"`
}

type OracleConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

const (
	defaultExtractTimeout = 60 * time.Second
	defaultCompareTimeout = 30 * time.Second
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cvscore matches a CV against a job description and produces an auditable compatibility score",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("oracle.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cvscore.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the run command.
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The defaults cover everything except the oracle credentials, so a
		// missing default config file is tolerated here.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// resolveWeights overlays configured category weights onto the defaults and
// verifies the result still sums to 1.0.
func resolveWeights(config *Config) (keyword.Weights, error) {
	weights := keyword.DefaultWeights()

	for name, value := range config.Weights {
		c := keyword.Category(name)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q in weights configuration", name)
		}
		weights[c] = value
	}

	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return weights, nil
}

func resolveBonus(config *Config) scoring.Bonus {
	bonus := scoring.DefaultBonus()
	if config.Bonus == nil {
		return bonus
	}

	if config.Bonus.RequiredDelta != nil {
		bonus.RequiredDelta = *config.Bonus.RequiredDelta
	}
	if config.Bonus.PreferredDelta != nil {
		bonus.PreferredDelta = *config.Bonus.PreferredDelta
	}
	if config.Bonus.MissingRequiredPenalty != nil {
		bonus.MissingRequiredPenalty = *config.Bonus.MissingRequiredPenalty
	}
	bonus.Required = config.Bonus.Required
	bonus.Preferred = config.Bonus.Preferred

	return bonus
}

func resolveTimeouts(config *Config) (extract, compare time.Duration) {
	extract = defaultExtractTimeout
	compare = defaultCompareTimeout

	if config.Timeouts == nil {
		return extract, compare
	}

	if config.Timeouts.Extract > 0 {
		extract = config.Timeouts.Extract
	}
	if config.Timeouts.Compare > 0 {
		compare = config.Timeouts.Compare
	}

	return extract, compare
}
