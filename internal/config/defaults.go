package config

const (
	defaultDataDir       = "~/.local/share/kbaudit"
	defaultReportDir     = "~/.local/share/kbaudit/reports"
	defaultLogDir        = "~/.local/state/kbaudit/logs"
	defaultBaseURL       = "https://help.zipboard.co"
	defaultLLMBaseURL    = "https://api.groq.com/openai/v1"
	defaultDashboardBind = "127.0.0.1:8501"
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// DefaultModels is the analysis roster used when none is configured.
var DefaultModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"openai/gpt-oss-120b",
	"openai/gpt-oss-safeguard-20b",
	"meta-llama/llama-4-maverick-17b-128e-instruct",
	"meta-llama/llama-4-scout-17b-16e-instruct",
}

// llmKeyEnvVars are consulted in order when llm.api_key is blank.
var llmKeyEnvVars = []string{"GROQ_API_KEY", "GROK_API_KEY", "AI_API_KEY"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ReportDir: defaultReportDir,
			LogDir:    defaultLogDir,
		},
		Site: Site{
			BaseURL:              defaultBaseURL,
			UserAgent:            defaultUserAgent,
			RequestIntervalMS:    500,
			RateLimitWaitSeconds: 10,
			MaxRateLimitRetries:  3,
			TimeoutSeconds:       30,
			ContentFormat:        contentFormatText,
		},
		LLM: LLM{
			BaseURL:         defaultLLMBaseURL,
			Models:          append([]string(nil), DefaultModels...),
			TimeoutSeconds:  60,
			MaxContentChars: 15000,
		},
		Workflow: Workflow{
			ArticlePauseMS:  500,
			AnalysisPauseMS: 1000,
		},
		Dashboard: Dashboard{Bind: defaultDashboardBind},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
