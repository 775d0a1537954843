package engine

import "errors"

// ErrDataUnavailable is returned when no source - live, cached, or persisted -
// could satisfy a request. Callers map it to not-found semantics, as opposed
// to upstream exhaustion which maps to bad-gateway semantics.
var ErrDataUnavailable = errors.New("data unavailable from any source")

// ErrInvalidResponse marks a provider response that failed the validation
// gate. It is handled exactly like an upstream failure: the orchestrator falls
// back and the invalid payload is never cached or persisted.
var ErrInvalidResponse = errors.New("provider response failed validation")
