package llm

import "errors"

var (
	// ErrProviderUnavailable covers transport failures and timeouts
	// where no provider response was received.
	ErrProviderUnavailable = errors.New("completion provider unavailable")

	// ErrProviderRejected covers non-2xx provider responses (quota,
	// invalid request, auth failure).
	ErrProviderRejected = errors.New("completion provider rejected request")

	// ErrMalformedResponse covers 2xx responses that lack the
	// expected reply.
	ErrMalformedResponse = errors.New("completion provider returned malformed response")
)
