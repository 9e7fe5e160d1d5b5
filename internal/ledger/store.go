package ledger

import (
	"context"
	"fmt"
)

// Store persists ledger changes.
//
// Commit is called with the write lock held and before the change is applied
// in memory. If it returns an error, the operation fails and the ledger state
// is left untouched.
type Store interface {
	Commit(ctx context.Context, change Change) error
}

// Change describes everything a single successful operation modifies.
// Exactly one of Manager, Distribution or Allocation is set.
type Change struct {
	Manager      *ManagerEntry
	Distribution *DistributionInfo
	Allocation   *AllocationRecord
	Events       []Event
}

// ManagerEntry is a single entry of the manager registry.
type ManagerEntry struct {
	Principal  Principal
	Authorized bool
}

// AllocationRecord is an allocation together with its position in the
// recipient list of its distribution.
type AllocationRecord struct {
	DistributionID int64
	Recipient      Principal
	Position       int
	Allocation     Allocation
}

// State is a full snapshot of the ledger used to rebuild it on start-up.
//
// Distributions must be ordered by ID, Allocations by position within
// each distribution.
type State struct {
	Managers      []ManagerEntry
	Distributions []DistributionInfo
	Allocations   []AllocationRecord
}

// restore loads a State into an empty ledger.
func (l *Ledger) restore(state *State) error {
	for _, m := range state.Managers {
		l.managers[m.Principal] = m.Authorized
	}

	for i, info := range state.Distributions {
		if info.ID != int64(i+1) {
			return fmt.Errorf("%w: distribution %d found at position %d", ErrCorruptState, info.ID, i+1)
		}

		if info.IsFinalized && info.IsActive {
			return fmt.Errorf("%w: distribution %d is finalized but active", ErrCorruptState, info.ID)
		}

		d := newDistribution(info.ID)
		d.title = info.Title
		d.totalBudget = info.TotalBudget
		d.createdAt = info.CreatedAt
		d.deadline = info.Deadline
		d.isActive = info.IsActive
		d.isFinalized = info.IsFinalized
		l.distributions = append(l.distributions, d)
	}

	for _, r := range state.Allocations {
		d, err := l.distribution(r.DistributionID)
		if err != nil {
			return fmt.Errorf("%w: allocation for unknown distribution %d", ErrCorruptState, r.DistributionID)
		}

		if _, ok := d.allocations[r.Recipient]; ok {
			return fmt.Errorf("%w: duplicate allocation for %s in distribution %d", ErrCorruptState, r.Recipient, r.DistributionID)
		}

		if !r.Allocation.HasBonus {
			return fmt.Errorf("%w: allocation for %s in distribution %d has no bonus", ErrCorruptState, r.Recipient, r.DistributionID)
		}

		d.add(r.Recipient, r.Allocation.clone())
	}

	return nil
}
