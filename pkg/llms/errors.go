package llms

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrEmptyResponse is returned when the provider reply carries no content.
	ErrEmptyResponse = errors.New("llms: empty response")
	// ErrContentFiltered is returned when the provider refused the request
	// for content-safety reasons.
	ErrContentFiltered = errors.New("llms: response blocked by content filter")
)

// TransportError is a network, timeout, or auth-at-call-time failure of one
// provider call. The adapter does not retry; retry policy belongs to the
// transport layer.
type TransportError struct {
	Provider ProviderType
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a provider SDK error.
func NewTransportError(provider ProviderType, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Provider: provider, Err: err}
}

// IsTransportError reports whether err is a provider transport failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// FormatError is an unparseable or unexpected provider reply shape.
type FormatError struct {
	Provider ProviderType
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: unexpected reply: %s", e.Provider, e.Reason)
}

// NewFormatError reports a malformed provider reply.
func NewFormatError(provider ProviderType, format string, args ...any) error {
	return &FormatError{Provider: provider, Reason: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is a malformed-reply failure.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
