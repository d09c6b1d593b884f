package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"kbaudit/internal/analysis"
	"kbaudit/internal/config"
	"kbaudit/internal/logging"
	"kbaudit/internal/pipeline"
	"kbaudit/internal/scraper"
	"kbaudit/internal/services/llm"
	"kbaudit/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withStore opens the article store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// newRunner wires the production scraper and analyzer into a pipeline runner.
func (c *commandContext) newRunner(cfg *config.Config, st *store.Store) (*pipeline.Runner, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	fetcher, err := scraper.New(scraper.ConfigFrom(cfg), scraper.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	analyzer, err := newAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cfg, st, fetcher, analyzer, pipeline.WithLogger(logger))
}

func newAnalyzer(cfg *config.Config, logger *slog.Logger) (*analysis.Analyzer, error) {
	roster, err := analysis.NewRoster(cfg.LLM.Models)
	if err != nil {
		return nil, fmt.Errorf("model roster: %w", err)
	}
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		JSONMode:       cfg.LLM.JSONMode,
	})
	return analysis.NewAnalyzer(client, roster, analysis.Config{
		Configured:      client.Configured(),
		MaxContentChars: cfg.LLM.MaxContentChars,
	}, analysis.WithLogger(logger)), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
