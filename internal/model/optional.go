package model

import "github.com/bytedance/sonic"

// OptionalString is a tri-state JSON field: absent, explicit null, or a
// value. UnmarshalJSON only runs when the field is present in the body, so
// Set stays false for omitted fields.
type OptionalString struct {
	Set   bool
	Valid bool
	Value string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true

	if string(data) == "null" {
		o.Valid = false
		o.Value = ""
		return nil
	}

	err := sonic.Unmarshal(data, &o.Value)
	if err != nil {
		return err
	}

	o.Valid = true
	return nil
}
