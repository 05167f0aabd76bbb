package sign

import (
	"errors"

	"github.com/status-im/sign-queue/signal"
)

const (
	// SignRequestNoErrorCode is sent when no error occurred.
	SignRequestNoErrorCode = iota
	// SignRequestDefaultErrorCode is every case without a special return code.
	SignRequestDefaultErrorCode
	// SignRequestRejectedErrorCode is sent when the user rejected the request.
	SignRequestRejectedErrorCode
	// SignRequestInvalidStateErrorCode is sent when an operation targeted a
	// request outside the required status.
	SignRequestInvalidStateErrorCode
	// SignRequestNotFoundErrorCode is sent when the request id is unknown.
	SignRequestNotFoundErrorCode
)

func signRequestErrorCode(err error) int {
	switch {
	case err == nil:
		return SignRequestNoErrorCode
	case errors.Is(err, ErrSignReqRejected):
		return SignRequestRejectedErrorCode
	case errors.Is(err, ErrInvalidState):
		return SignRequestInvalidStateErrorCode
	case errors.Is(err, ErrRequestNotFound):
		return SignRequestNotFoundErrorCode
	}
	return SignRequestDefaultErrorCode
}

func pendingRequestEvent(request Request) signal.PendingRequestEvent {
	return signal.PendingRequestEvent{
		ID:      request.ID,
		Kind:    string(request.Kind),
		Origin:  request.Origin,
		ChainID: request.ChainID,
	}
}

// SendSignRequestAdded sends a signal when a sign request is added.
func SendSignRequestAdded(request Request) {
	signal.SendSignRequestAdded(pendingRequestEvent(request))
}

// SendSignRequestSigned sends a signal when a sign request is resolved with a
// signature.
func SendSignRequestSigned(request Request, signature string) {
	signal.SendSignRequestSigned(pendingRequestEvent(request), signature)
}

// SendSignRequestFailed sends a signal only if an error had happened.
func SendSignRequestFailed(request Request, err error) {
	signal.SendSignRequestFailed(pendingRequestEvent(request), err, signRequestErrorCode(err))
}

// SendSignRequestRejected sends a signal when the user rejects a request.
func SendSignRequestRejected(request Request) {
	signal.SendSignRequestRejected(pendingRequestEvent(request))
}
