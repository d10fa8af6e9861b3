package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
)

// ID is a primary key in a request body. Both 5 and "5" decode to 5.
type ID int64

// IDType is reported in the *json.UnmarshalTypeError for an undecodable ID.
var IDType = reflect.TypeOf(ID(0))

func (id *ID) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}

	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(b), Type: IDType}
	}
	*id = ID(v)
	return nil
}

// Int64Ptr returns nil for a nil ID.
func (id *ID) Int64Ptr() *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

func jsonKind(b []byte) string {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	default:
		return "number"
	}
}
