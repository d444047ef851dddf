// Package llm provides the discrete classification path: single camera
// frames sent to the Gemini REST API with structured output, rate limited
// and cached. It backs the system when the live channel is unavailable.
package llm
