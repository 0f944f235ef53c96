package chat

import "fmt"

// Option applies one configuration value to a request under construction.
// Options are applied in the order supplied; the last writer for a field
// wins. An option carrying an out-of-range value fails when applied.
type Option func(*Request) error

// NewRequest constructs a validated Request. It fails with a missing_model
// error when the model identifier is empty, and with an invalid_value error
// when any option carries a value outside its allowed range.
func NewRequest(model string, messages []Message, opts ...Option) (*Request, error) {
	if model == "" {
		return nil, NewMissingModelError()
	}

	req := &Request{
		Model:    model,
		Messages: messages,
	}

	for _, opt := range opts {
		if err := opt(req); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// WithStream requests incremental delivery over SSE. Note that the client
// forces this flag to match the operation (Complete vs Stream) regardless.
func WithStream() Option {
	return func(r *Request) error {
		r.Stream = true
		return nil
	}
}

// WithTemperature sets the sampling temperature. Must be in [0.0, 2.0].
func WithTemperature(v float64) Option {
	return func(r *Request) error {
		if v < 0.0 || v > 2.0 {
			return NewInvalidValueError(fmt.Sprintf("temperature must be between 0.0 and 2.0, got %g", v))
		}
		r.Temperature = &v
		return nil
	}
}

// WithTopP sets the nucleus sampling threshold. Must be in [0.0, 1.0].
func WithTopP(v float64) Option {
	return func(r *Request) error {
		if v < 0.0 || v > 1.0 {
			return NewInvalidValueError(fmt.Sprintf("top_p must be between 0.0 and 1.0, got %g", v))
		}
		r.TopP = &v
		return nil
	}
}

// WithMaxTokens caps the completion length. Must be positive.
func WithMaxTokens(n int) Option {
	return func(r *Request) error {
		if n <= 0 {
			return NewInvalidValueError(fmt.Sprintf("max_tokens must be positive, got %d", n))
		}
		r.MaxTokens = &n
		return nil
	}
}

// WithFrequencyPenalty sets the frequency penalty. Must be in [-2.0, 2.0].
func WithFrequencyPenalty(v float64) Option {
	return func(r *Request) error {
		if v < -2.0 || v > 2.0 {
			return NewInvalidValueError(fmt.Sprintf("frequency_penalty must be between -2.0 and 2.0, got %g", v))
		}
		r.FrequencyPenalty = &v
		return nil
	}
}

// WithPresencePenalty sets the presence penalty. Must be in [-2.0, 2.0].
func WithPresencePenalty(v float64) Option {
	return func(r *Request) error {
		if v < -2.0 || v > 2.0 {
			return NewInvalidValueError(fmt.Sprintf("presence_penalty must be between -2.0 and 2.0, got %g", v))
		}
		r.PresencePenalty = &v
		return nil
	}
}

// WithN sets the number of completion choices. Must be positive.
func WithN(n int) Option {
	return func(r *Request) error {
		if n <= 0 {
			return NewInvalidValueError(fmt.Sprintf("n must be positive, got %d", n))
		}
		r.N = &n
		return nil
	}
}

// WithLogitBias sets per-token bias adjustments, keyed by token ID.
func WithLogitBias(bias map[string]float64) Option {
	return func(r *Request) error {
		r.LogitBias = bias
		return nil
	}
}

// WithUser sets the end-user identifier. Must be non-empty.
func WithUser(id string) Option {
	return func(r *Request) error {
		if id == "" {
			return NewInvalidValueError("user must not be empty")
		}
		r.User = id
		return nil
	}
}

// WithStop sets the stop sequences. The list must be non-empty.
func WithStop(sequences ...string) Option {
	return func(r *Request) error {
		if len(sequences) == 0 {
			return NewInvalidValueError("stop requires at least one sequence")
		}
		r.Stop = sequences
		return nil
	}
}

// WithTools offers tool definitions to the model.
func WithTools(tools ...Tool) Option {
	return func(r *Request) error {
		r.Tools = tools
		return nil
	}
}
