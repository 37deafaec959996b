package model

import (
	"bytes"
	"encoding/json"
)

// The server sends references either populated or as a bare id string,
// depending on the endpoint.

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if id, ok := bareID(data); ok {
		*r = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	return json.Unmarshal(data, (*plain)(r))
}

func (r *DepartmentRef) UnmarshalJSON(data []byte) error {
	if id, ok := bareID(data); ok {
		*r = DepartmentRef{ID: id}
		return nil
	}
	type plain DepartmentRef
	return json.Unmarshal(data, (*plain)(r))
}

func bareID(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return "", false
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", false
	}
	return id, true
}
