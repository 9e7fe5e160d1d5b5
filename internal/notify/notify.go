// Package notify contains ledger.Emitter implementations that fan ledger
// events out to logs and metrics.
package notify

import (
	"github.com/bonus-distribution/backend/internal/ledger"
)

// Multi emits every event to all emitters in order.
type Multi []ledger.Emitter

var _ ledger.Emitter = Multi{}

func (m Multi) Emit(e ledger.Event) {
	for _, emitter := range m {
		emitter.Emit(e)
	}
}
