package typeddata

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema mirrors the typed message schema published with EIP-712
// tooling: types (with an EIP712Domain entry), primaryType, domain and message
// are all required.
var documentSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"types": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				eip712Domain: map[string]interface{}{"type": "array"},
			},
			"additionalProperties": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name": map[string]interface{}{"type": "string"},
						"type": map[string]interface{}{"type": "string"},
					},
					"required": []string{"name", "type"},
				},
			},
			"required": []string{eip712Domain},
		},
		"primaryType": map[string]interface{}{"type": "string"},
		"domain":      map[string]interface{}{"type": "object"},
		"message":     map[string]interface{}{"type": "object"},
	},
	"required": []string{"types", "primaryType", "domain", "message"},
}

var compiledSchema = func() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("typeddata: invalid document schema: %v", err))
	}
	return schema
}()

// ValidateDocument checks raw against the EIP-712 document schema and decodes
// it. The returned error describes the first structural violation.
func ValidateDocument(raw json.RawMessage) (TypedData, error) {
	var typed TypedData
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return typed, ErrNotTypedData
	}
	if !result.Valid() {
		return typed, fmt.Errorf("typed data does not match schema: %s", result.Errors()[0].String())
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return typed, ErrNotTypedData
	}
	if err := typed.Validate(); err != nil {
		return typed, err
	}
	return typed, nil
}
