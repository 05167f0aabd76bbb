package signal

const (
	// EventSignRequestAdded is triggered when a signing request joins the queue.
	EventSignRequestAdded = "sign-request.added"
	// EventSignRequestSigned is triggered when a signing request is resolved
	// with a signature.
	EventSignRequestSigned = "sign-request.signed"
	// EventSignRequestFailed is triggered when the external signer fails to
	// resolve an approved request.
	EventSignRequestFailed = "sign-request.failed"
	// EventSignRequestRejected is triggered when the user rejects a request.
	EventSignRequestRejected = "sign-request.rejected"
)

// PendingRequestEvent is a JSON description of a signing request sent with
// every sign-request signal.
type PendingRequestEvent struct {
	ID      uint64 `json:"id"`
	Kind    string `json:"kind"`
	Origin  string `json:"origin"`
	ChainID uint64 `json:"chainId"`
}

// SignRequestSignedEvent extends the request description with the produced
// signature.
type SignRequestSignedEvent struct {
	PendingRequestEvent
	Signature string `json:"signature"`
}

// SignRequestFailedEvent extends the request description with the failure.
type SignRequestFailedEvent struct {
	PendingRequestEvent
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    int    `json:"errorCode"`
}

// SendSignRequestAdded sends a signal when a sign request is added.
func SendSignRequestAdded(event PendingRequestEvent) {
	send(EventSignRequestAdded, event)
}

// SendSignRequestSigned sends a signal when a sign request is signed.
func SendSignRequestSigned(event PendingRequestEvent, signature string) {
	send(EventSignRequestSigned, SignRequestSignedEvent{
		PendingRequestEvent: event,
		Signature:           signature,
	})
}

// SendSignRequestFailed sends a signal when the signer fails a request.
func SendSignRequestFailed(event PendingRequestEvent, err error, code int) {
	send(EventSignRequestFailed, SignRequestFailedEvent{
		PendingRequestEvent: event,
		ErrorMessage:        err.Error(),
		ErrorCode:           code,
	})
}

// SendSignRequestRejected sends a signal when the user rejects a request.
func SendSignRequestRejected(event PendingRequestEvent) {
	send(EventSignRequestRejected, event)
}
