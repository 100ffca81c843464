package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Ledger event kinds, one per mutating record operation.
const (
	KindAppend = "append"
	KindImport = "import"
	KindReset  = "reset"
	KindSample = "load_sample"
	KindBudget = "set_budget"
	KindSave   = "save"
)

// LedgerEvent announces that a session ledger changed. It carries counts
// only; expense contents never leave the process.
type LedgerEvent struct {
	Kind        string    `json:"kind"`
	SessionID   string    `json:"session_id"`
	Records     int       `json:"records"`
	BudgetCents int64     `json:"budget_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind, sessionID string, records int, budgetCents int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:        kind,
		SessionID:   sessionID,
		Records:     records,
		BudgetCents: budgetCents,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects ones without a kind.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("ledger event without kind")
	}
	return &msg, nil
}
