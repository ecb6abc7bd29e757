// Package llm provides an OpenAI-compatible chat completion client.
//
// The content intelligence layer uses it for three kinds of call:
//   - classification of remote metadata and screening transcripts (JSON replies)
//   - translation of transcripts and reports (plain text replies)
//   - structured meeting summaries (plain text replies)
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Complete: send a Request and receive the reply text.
// Client.CompleteJSON: request a JSON object reply.
// Client.HealthCheck: verify the API key and model are usable.
// DecodeLLMJSON: decode a JSON reply, tolerating code fences and chatter.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx, empty completions, and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Retry-After headers are honoured up to the max delay. Context
// cancellation aborts retries immediately.
package llm
