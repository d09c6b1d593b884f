// Package llm provides an OpenAI-compatible chat client used as the analysis
// provider.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send a system and user prompt to a named model and return
// the raw completion text.
// Client.HealthCheck: verify the API key and a model are usable.
//
// # Errors
//
// Non-2xx responses surface as *ProviderError, decoded from the
// {"error":{"message","type","code"}} envelope. ProviderError.RateLimited is
// true for HTTP 429 or code rate_limit_exceeded; RetryAfter exposes the
// Retry-After header.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/5xx, empty completions, and network timeouts
// with exponential backoff (base 1s, max 10s, up to 3 attempts by default).
// Rate-limit responses are never retried here. The analysis invoker handles
// them by rotating models. Context cancellation aborts retries immediately.
package llm
