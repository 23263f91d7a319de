package provider

import "fmt"

// RequestError represents a chat completion or model-list call that
// failed mid-flight. It is propagated to the caller, never swallowed.
type RequestError struct {
	Provider string
	Op       string // "chat", "models"
	Status   int    // HTTP status when applicable, 0 otherwise
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s request failed (status %d): %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s request failed: %v", e.Provider, e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// UnknownProviderError is returned when a named provider does not exist
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s", e.Name)
}

// UnavailableError is returned when an explicitly requested provider
// fails its availability probe. There is no silent fallback: the user
// asked for this backend and must be told it cannot serve.
type UnavailableError struct {
	Name string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %q is unavailable; check its configuration or switch to another provider", e.Name)
}

// NoneAvailableError is returned when no provider can serve a turn
type NoneAvailableError struct{}

func (e *NoneAvailableError) Error() string {
	return "no LLM provider available; check that:\n" +
		"  1. Ollama is installed and running (ollama serve), or\n" +
		"  2. an OpenRouter API key is configured (enai config set openrouter_api_key <key>)"
}
