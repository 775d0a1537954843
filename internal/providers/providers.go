// Package providers contains the upstream adapters for each data domain.
// Adapters build provider URLs and decode raw responses; validation and
// mapping to domain records stay with the orchestration engine.
package providers

import "errors"

// ErrNoData is returned when a provider answers successfully but with an
// empty payload for the requested entity.
var ErrNoData = errors.New("provider returned no data")
