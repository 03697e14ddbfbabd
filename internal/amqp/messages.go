package amqp

import (
	"encoding/json"
	"time"

	"prevgest/internal/importer"
)

// Import kinds carried in report messages.
const (
	KindContracts = "contracts"
	KindFinancial = "financial_events"
)

// ImportReportMessage is published after each import run.
type ImportReportMessage struct {
	Kind      string          `json:"kind"`
	EventType string          `json:"event_type,omitempty"`
	Source    string          `json:"source"` // "upload", "astrea", "cli"
	Report    importer.Report `json:"report"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewImportReportMessage(kind, eventType, source string, report *importer.Report) *ImportReportMessage {
	return &ImportReportMessage{
		Kind:      kind,
		EventType: eventType,
		Source:    source,
		Report:    *report,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportReportMessageFromJSON creates a message from JSON bytes
func ImportReportMessageFromJSON(data []byte) (*ImportReportMessage, error) {
	var msg ImportReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
