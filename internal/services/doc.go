// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and article IDs for
//     logging.
//   - Structured error markers plus the Wrap helper so stage failures can be
//     classified as retryable or not.
//
// The llm subpackage holds the OpenAI-compatible provider client.
package services
