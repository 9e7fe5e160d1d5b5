package notify

import (
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/rs/zerolog"
)

// Logger writes one info line per event.
type Logger struct {
	Logger zerolog.Logger
}

func (l Logger) Emit(e ledger.Event) {
	entry := l.Logger.Info().Str("event", string(e.EventType()))

	switch e := e.(type) {
	case ledger.ManagerAuthorized:
		entry = entry.Str("manager", e.Manager.Hex())
	case ledger.ManagerRevoked:
		entry = entry.Str("manager", e.Manager.Hex())
	case ledger.DistributionCreated:
		entry = entry.
			Int64("distributionId", e.DistributionID).
			Str("title", e.Title).
			Str("totalBudget", e.TotalBudget.String()).
			Time("deadline", e.Deadline)
	case ledger.BonusAllocated:
		entry = entry.Int64("distributionId", e.DistributionID).Str("recipient", e.Recipient.Hex())
	case ledger.BonusClaimed:
		entry = entry.Int64("distributionId", e.DistributionID).Str("recipient", e.Recipient.Hex())
	case ledger.DistributionFinalized:
		entry = entry.Int64("distributionId", e.DistributionID).Int("recipientCount", e.RecipientCount)
	}

	entry.Msg("Ledger")
}
