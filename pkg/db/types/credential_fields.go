package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CredentialField is one name/value pair of an account credential, for
// example {"name": "password", "value": "hunter2"}.
type CredentialField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CredentialFields stores an ordered credential field set as a jsonb array.
// A JSON array is used instead of an object so submission order survives
// round trips.
type CredentialFields []CredentialField

func (f *CredentialFields) Scan(src any) error {
	if src == nil {
		*f = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("CredentialFields: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*f = nil
		return nil
	}

	var fields []CredentialField
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("CredentialFields: decode: %w", err)
	}
	*f = fields
	return nil
}

func (f CredentialFields) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]CredentialField(f))
	if err != nil {
		return nil, fmt.Errorf("CredentialFields: encode: %w", err)
	}
	return string(raw), nil
}

// Clone returns an independent copy of the field set.
func (f CredentialFields) Clone() CredentialFields {
	if f == nil {
		return nil
	}
	out := make(CredentialFields, len(f))
	copy(out, f)
	return out
}
