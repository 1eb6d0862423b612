// Package journal writes per-cycle audit records as JSON files, one file per
// evaluated asset.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CycleRecord captures one asset's evaluation cycle for audit and analysis.
type CycleRecord struct {
	Timestamp    time.Time      `json:"timestamp"`
	Ticker       string         `json:"ticker"`
	Close        float64        `json:"close,omitempty"`
	Level        float64        `json:"level,omitempty"`
	Trend        string         `json:"trend,omitempty"`
	Flipped      bool           `json:"flipped"`
	Direction    string         `json:"direction,omitempty"`
	OptionSymbol string         `json:"option_symbol,omitempty"`
	ExitAlerts   []string       `json:"exit_alerts,omitempty"`
	SignalID     int64          `json:"signal_id,omitempty"`
	NewSignal    bool           `json:"new_signal"`
	Notified     bool           `json:"notified"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Writer persists cycle records to a directory as JSON files.
type Writer struct {
	dir   string
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer rooted at dir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteCycle writes a cycle record to a timestamped JSON file and returns
// the file path.
func (w *Writer) WriteCycle(rec *CycleRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	name := fmt.Sprintf("scan_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
