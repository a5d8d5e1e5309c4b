package models

import (
	"bytes"
	"encoding/json"

	"github.com/gofrs/uuid"
)

// OptionalUUID tells an absent JSON key apart from an explicit null.
// Set is true whenever the key was present; Value is nil for null or "".
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func SomeUUID(id uuid.UUID) OptionalUUID {
	return OptionalUUID{Set: true, Value: &id}
}

func NullUUID() OptionalUUID {
	return OptionalUUID{Set: true}
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil
	}

	var id uuid.UUID
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

func (o OptionalUUID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
