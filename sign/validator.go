package sign

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/status-im/sign-queue/services/typeddata"
)

const (
	missingFromError  = "Params must include a from field."
	eip712SchemaError = "Data must conform to EIP-712 schema. See https://git.io/fNtcx."
)

// rawParams is the shape shared by all request kinds on the wire: an address
// the signature is requested for and kind-specific data.
type rawParams struct {
	From *common.Address `json:"from"`
	Data json.RawMessage `json:"data"`
}

// ValidateParams checks the raw request parameters for the given kind and
// decodes them into the kind's payload, normalizing message data along the
// way. It never mutates any state; a failure means the request must not be
// created.
func ValidateParams(kind Kind, raw json.RawMessage) (Payload, error) {
	var params rawParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &ValidationError{Message: "Params must be a valid request object."}
	}
	if params.From == nil {
		return nil, &ValidationError{Message: missingFromError}
	}

	switch kind {
	case KindPersonalMessage, KindEthSignMessage:
		var data string
		if err := json.Unmarshal(params.Data, &data); err != nil {
			return nil, &ValidationError{Message: "Params must include string message data."}
		}
		return MessagePayload{From: *params.From, Data: NormalizeMessageData(data)}, nil
	case KindTypedDataMessage:
		typed, err := typeddata.ValidateDocument(unwrapDocument(params.Data))
		if err != nil {
			return nil, &SchemaError{Message: eip712SchemaError}
		}
		return TypedDataPayload{From: *params.From, Data: typed}, nil
	case KindTransaction:
		return TransactionPayload{From: *params.From, Args: raw}, nil
	}
	return nil, ErrUnknownKind
}

// unwrapDocument accepts typed data passed either as a JSON object or as a
// JSON-encoded string containing the object (the eth_signTypedData_v3/v4
// calling convention).
func unwrapDocument(data json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return json.RawMessage(s)
	}
	return data
}

// NormalizeMessageData converts message data to its canonical 0x-prefixed hex
// form. Already-prefixed input is returned unchanged, bare hex gets the
// prefix, and anything else is treated as UTF-8 text and hex-encoded.
func NormalizeMessageData(data string) string {
	if strings.HasPrefix(data, "0x") {
		return data
	}
	if isHex(data) {
		return "0x" + data
	}
	return hexutil.Encode([]byte(data))
}

func isHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
