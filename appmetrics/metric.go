package appmetrics

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEventName   = errors.New("app-metric: invalid-event-name")
	ErrInvalidEnvironment = errors.New("app-metric: invalid-environment")
)

// Metric is a single telemetry event bound for the analytics sink.
type Metric struct {
	ID          string         `json:"id"`
	EventName   string         `json:"eventName"`
	EventValue  map[string]any `json:"eventValue"`
	Timestamp   int64          `json:"timestamp"`
	Environment string         `json:"environment"`
	Locale      string         `json:"locale"`
}

func (m *Metric) Validate() error {
	if len(m.EventName) == 0 {
		return ErrInvalidEventName
	}
	if len(m.Environment) == 0 {
		return ErrInvalidEnvironment
	}
	return nil
}

func (m *Metric) EnsureID() {
	if len(m.ID) != 0 {
		return
	}
	m.ID = uuid.New().String()
}

func (m *Metric) EnsureTimestamp() {
	if m.Timestamp != 0 {
		return
	}
	m.Timestamp = time.Now().UnixMilli()
}
