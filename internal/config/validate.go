package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. A missing LLM credential is
// not an error: the analyze stage then leaves articles pending.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSite() error {
	if err := validateHTTPURL("site.base_url", c.Site.BaseURL); err != nil {
		return err
	}
	if c.Site.RequestIntervalMS < 0 {
		return errors.New("site.request_interval_ms must be zero or positive")
	}
	if c.Site.RateLimitWaitSeconds < 0 {
		return errors.New("site.rate_limit_wait_seconds must be zero or positive")
	}
	if c.Site.MaxRateLimitRetries < 0 {
		return errors.New("site.max_rate_limit_retries must be zero or positive")
	}
	if c.Site.TimeoutSeconds <= 0 {
		return errors.New("site.timeout_seconds must be positive")
	}
	switch c.Site.ContentFormat {
	case contentFormatText, contentFormatMD:
	default:
		return fmt.Errorf("site.content_format: unsupported value %q (want %q or %q)", c.Site.ContentFormat, contentFormatText, contentFormatMD)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if len(c.LLM.Models) == 0 {
		return errors.New("llm.models must list at least one model")
	}
	if err := validateHTTPURL("llm.base_url", c.LLM.BaseURL); err != nil {
		return err
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.MaxContentChars <= 0 {
		return errors.New("llm.max_content_chars must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ArticlePauseMS < 0 {
		return errors.New("workflow.article_pause_ms must be zero or positive")
	}
	if c.Workflow.AnalysisPauseMS < 0 {
		return errors.New("workflow.analysis_pause_ms must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, value)
	}
	return nil
}
