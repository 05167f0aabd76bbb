package sign

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/status-im/sign-queue/services/typeddata"
)

// Kind identifies what a request asks the user to authorize.
type Kind string

const (
	// KindPersonalMessage is a personal_sign message request.
	KindPersonalMessage Kind = "personal-message"
	// KindTypedDataMessage is an eth_signTypedData (EIP-712) request.
	KindTypedDataMessage Kind = "typed-data-message"
	// KindEthSignMessage is a legacy eth_sign message request.
	KindEthSignMessage Kind = "eth-sign-message"
	// KindTransaction is a transaction authorization request.
	KindTransaction Kind = "transaction"
)

// Status is the lifecycle state of a request.
//
// Unapproved -> Approved -> Signed
//                        -> Errored
// Unapproved -> Rejected
//
// Signed, Rejected and Errored are terminal.
type Status string

const (
	StatusUnapproved Status = "unapproved"
	StatusApproved   Status = "approved"
	StatusSigned     Status = "signed"
	StatusRejected   Status = "rejected"
	StatusErrored    Status = "errored"
)

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusSigned || s == StatusRejected || s == StatusErrored
}

// Payload is the kind-specific content of a request. It is a closed set:
// MessagePayload, TypedDataPayload and TransactionPayload are the only
// implementations.
type Payload interface {
	payloadKind() Kind
}

// MessagePayload carries a message to sign with personal_sign or eth_sign.
// Data is always the normalized 0x-prefixed hex encoding of the message bytes.
type MessagePayload struct {
	From common.Address `json:"from"`
	Data string         `json:"data"`
}

func (MessagePayload) payloadKind() Kind { return KindPersonalMessage }

// TypedDataPayload carries an EIP-712 document to sign.
type TypedDataPayload struct {
	From common.Address      `json:"from"`
	Data typeddata.TypedData `json:"data"`
}

func (TypedDataPayload) payloadKind() Kind { return KindTypedDataMessage }

// TransactionPayload carries externally-defined transaction parameters. The
// queue treats them as opaque; only the from field is inspected during
// validation.
type TransactionPayload struct {
	From common.Address  `json:"from"`
	Args json.RawMessage `json:"args"`
}

func (TransactionPayload) payloadKind() Kind { return KindTransaction }

// Request is a single pending signing request. Values handed out by
// PendingRequests are copies; the registry keeps the only mutable instance.
type Request struct {
	ID        uint64    `json:"id"`
	Kind      Kind      `json:"kind"`
	Origin    string    `json:"origin"`
	ChainID   uint64    `json:"chainId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Payload   Payload   `json:"payload"`

	// RawSignature is set once the request reaches StatusSigned.
	RawSignature hexutil.Bytes `json:"rawSignature,omitempty"`
	// Err is set once the request reaches StatusErrored.
	Err string `json:"error,omitempty"`
}
