package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/ai"
	"github.com/jayeshwarhadi/HireLens/internal/ai/gemini"
	"github.com/jayeshwarhadi/HireLens/internal/layout"
	"github.com/jayeshwarhadi/HireLens/internal/logger"
	"github.com/jayeshwarhadi/HireLens/internal/secrets"
)

const (
	app = "hirelens"

	defaultAddr = ":8080"
)

type Config struct {
	Server *ServerConfig `mapstructure:"server"`
	AI     *AIConfig     `mapstructure:"ai"`

	Playback *struct {
		IntervalMS int `mapstructure:"interval-ms"`
	} `mapstructure:"playback"`

	Watch *struct {
		DebounceMS int `mapstructure:"debounce-ms"`
	} `mapstructure:"watch"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	CORS bool   `mapstructure:"cors"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hirelens is the backend of the HireLens interview and algorithm visualizer",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hirelens.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine, everything has defaults. A config file
	// parsed with an error is not.
	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil {
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// newAnalyzer builds the configured analysis provider.
func newAnalyzer(ctx context.Context, cfg *AIConfig, zl *zap.Logger) (ai.Analyzer, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}
	if gcfg.APIKeyFile == "" {
		gcfg.APIKeyFile = viper.GetString("ai.gemini.api-key-file")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gcfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithCommonFields(zl, "gemini", gcfg.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model, gcfg.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	tracerLogger := logger.WithCommonFields(zl, "gemini", generator.Model())

	return gemini.NewTracer(generator, tracerLogger, gcfg.MaxLogLength), nil
}

func newProjector() *layout.Projector {
	return layout.NewProjector(layout.DefaultConfig())
}

func serverAddr(cfg *Config) string {
	if cfg != nil && cfg.Server != nil && strings.TrimSpace(cfg.Server.Addr) != "" {
		return cfg.Server.Addr
	}
	return defaultAddr
}

func playbackInterval(cfg *Config) time.Duration {
	if cfg == nil || cfg.Playback == nil || cfg.Playback.IntervalMS <= 0 {
		return 0
	}
	return time.Duration(cfg.Playback.IntervalMS) * time.Millisecond
}

func watchDebounce(cfg *Config) time.Duration {
	if cfg == nil || cfg.Watch == nil || cfg.Watch.DebounceMS <= 0 {
		return 0
	}
	return time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
}
