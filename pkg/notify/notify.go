package notify

import (
	"github.com/trialslog/trial-score-manager-go/pkg/model"
)

// ChangeKind classifies a ledger mutation.
type ChangeKind string

const (
	ChangeRecorded  ChangeKind = "recorded"
	ChangeCorrected ChangeKind = "corrected"
	ChangeRemoved   ChangeKind = "removed"
	ChangeReset     ChangeKind = "reset"
)

// Change describes one committed ledger mutation.
// Attempt is nil for a full reset.
type Change struct {
	Kind    ChangeKind     `json:"kind"`
	Attempt *model.Attempt `json:"attempt,omitempty"`
}

// ChangeNotifier receives committed ledger changes. Implementations must not
// block and must never surface failures into the scoring path.
type ChangeNotifier interface {
	LedgerChanged(change Change)
}

// ChangeNotifierFunc adapts a function to the ChangeNotifier interface.
type ChangeNotifierFunc func(change Change)

func (f ChangeNotifierFunc) LedgerChanged(change Change) { f(change) }
