// Package signal implements event-based signalling between the signing queue
// and the confirmation UI embedding it. Events are delivered asynchronously
// as JSON strings to a handler registered by the host.
package signal
