package schema

import (
	"bytes"
	"encoding/json"
	"errors"
)

var jsonNull = []byte("null")

// Decode unmarshals data into dst and classifies the failure: syntax
// errors and a bare null are ErrDecode, anything else that fails to
// unmarshal (wrong JSON types) is ErrSchema.
func Decode(data []byte, dst any) error {
	if IsNull(data) {
		return ErrDecode
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return ErrDecode
		}
		return ErrSchema
	}
	return nil
}

// IsNull reports whether data is the JSON literal null.
func IsNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), jsonNull)
}
