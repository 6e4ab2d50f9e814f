package dbtypes

import (
	"testing"
)

func TestCredentialFieldsRoundTripPreservesOrder(t *testing.T) {
	fields := CredentialFields{
		{Name: "email", Value: "seller@example.com"},
		{Name: "password", Value: "hunter2"},
		{Name: "recovery_code", Value: "1234"},
	}

	raw, err := fields.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded CredentialFields
	if err := decoded.Scan([]byte(raw.(string))); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(decoded) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(decoded))
	}
	for i := range fields {
		if decoded[i] != fields[i] {
			t.Fatalf("field %d mismatch: %+v != %+v", i, decoded[i], fields[i])
		}
	}
}

func TestCredentialFieldsScanNil(t *testing.T) {
	var fields CredentialFields
	if err := fields.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if fields != nil {
		t.Fatalf("expected nil fields, got %+v", fields)
	}
}

func TestCredentialFieldsCloneIsIndependent(t *testing.T) {
	original := CredentialFields{{Name: "email", Value: "a@b.c"}}
	clone := original.Clone()
	clone[0].Value = "mutated"

	if original[0].Value != "a@b.c" {
		t.Fatalf("clone mutation leaked into original: %+v", original)
	}
}
