package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr string
	}{
		{in: `{"project": 3}`, want: 3},
		{in: `{"project": "3"}`, want: 3},
		{in: `{"project": " 12 "}`, wantErr: "string"},
		{in: `{"project": "abc"}`, wantErr: "string"},
		{in: `{"project": 1.5}`, wantErr: "number"},
		{in: `{"project": true}`, wantErr: "bool"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var body struct {
				Project ID `json:"project"`
			}
			err := json.Unmarshal([]byte(tt.in), &body)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if int64(body.Project) != tt.want {
					t.Errorf("got %d, want %d", body.Project, tt.want)
				}
				return
			}

			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				t.Fatalf("expected UnmarshalTypeError, got %v", err)
			}
			if typeErr.Value != tt.wantErr || typeErr.Field != "project" || typeErr.Type != IDType {
				t.Errorf("unexpected error %+v", typeErr)
			}
		})
	}
}

func TestNullableID(t *testing.T) {
	var body struct {
		Assignee Nullable[ID] `json:"assignee_id"`
	}
	if err := json.Unmarshal([]byte(`{"assignee_id": "7"}`), &body); err != nil {
		t.Fatal(err)
	}
	if got := body.Assignee.Ptr().Int64Ptr(); got == nil || *got != 7 {
		t.Errorf("expected 7, got %v", got)
	}

	body.Assignee = Nullable[ID]{}
	if err := json.Unmarshal([]byte(`{"assignee_id": null}`), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Assignee.Set || body.Assignee.Ptr().Int64Ptr() != nil {
		t.Errorf("expected explicit null, got %+v", body.Assignee)
	}
}
