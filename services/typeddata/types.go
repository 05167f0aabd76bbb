package typeddata

import (
	"encoding/json"
	"errors"
	"fmt"
)

const eip712Domain = "EIP712Domain"

var (
	// ErrNotTypedData is returned when the raw payload is not a JSON object at all.
	ErrNotTypedData = errors.New("data is not a valid typed data document")
)

// Field is a single member of a user-defined struct type.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Types maps a struct type name to its ordered fields.
type Types map[string][]Field

// TypedData is an EIP-712 document: domain-separated structured data to sign.
type TypedData struct {
	Types       Types                      `json:"types"`
	PrimaryType string                     `json:"primaryType"`
	Domain      map[string]json.RawMessage `json:"domain"`
	Message     map[string]json.RawMessage `json:"message"`
}

// Validate verifies that a decoded document carries every field the EIP-712
// structure requires and that the primary type is defined.
func (t TypedData) Validate() error {
	if len(t.Types) == 0 {
		return errors.New("types are not defined")
	}
	if _, exist := t.Types[eip712Domain]; !exist {
		return fmt.Errorf("%s is not defined in types", eip712Domain)
	}
	if len(t.PrimaryType) == 0 {
		return errors.New("primary type is not defined")
	}
	if _, exist := t.Types[t.PrimaryType]; !exist {
		return fmt.Errorf("primary type %s is not defined in types", t.PrimaryType)
	}
	if t.Domain == nil {
		return errors.New("domain is not defined")
	}
	if t.Message == nil {
		return errors.New("message is not defined")
	}
	return nil
}
