package signal

import (
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// Envelope is a wrapper around event, that includes the type of the event.
type Envelope struct {
	Type  string      `json:"type"`
	Event interface{} `json:"event"`
}

// NewEnvelope creates new envelope of given type and event payload.
func NewEnvelope(typ string, event interface{}) *Envelope {
	return &Envelope{
		Type:  typ,
		Event: event,
	}
}

// NotificationHandler defines a handler able to process incoming queue
// events. Events are encoded as JSON strings.
type NotificationHandler func(jsonEvent string)

var (
	handlerMu sync.RWMutex
	handler   NotificationHandler
)

// SetNotificationHandler sets the handler to invoke on send.
func SetNotificationHandler(fn NotificationHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	handler = fn
}

// ResetNotificationHandler removes the registered handler.
func ResetNotificationHandler() {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	handler = nil
}

// send marshals the event into an envelope and forwards it to the registered
// handler, if any.
func send(typ string, event interface{}) {
	handlerMu.RLock()
	fn := handler
	handlerMu.RUnlock()
	if fn == nil {
		return
	}

	data, err := json.Marshal(NewEnvelope(typ, event))
	if err != nil {
		log.Error("marshal signal envelope", "error", err)
		return
	}
	fn(string(data))
}
