package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFieldsUnmarshalStringifiesValues(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`{"page":"2","limit":50,"deep":{"a":true},"none":null}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Fields{"page": "2", "limit": "50", "deep": `{"a":true}`, "none": ""}
	if !reflect.DeepEqual(f, want) {
		t.Errorf("want %v, got %v", want, f)
	}
	if keys := f.Keys(); !reflect.DeepEqual(keys, []string{"deep", "limit", "none", "page"}) {
		t.Errorf("want sorted keys, got %v", keys)
	}
}

func TestFieldsUnmarshalNull(t *testing.T) {
	f := Fields{"x": "1"}
	if err := json.Unmarshal([]byte(`null`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f != nil {
		t.Errorf("want nil fields, got %v", f)
	}
}

func TestBodyUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"{\"x\":1}"`, `{"x":1}`},
		{`"http:\/\/host"`, "http://host"},
		{`{"x": 1}`, `{"x": 1}`},
		{`[1,2]`, `[1,2]`},
		{`null`, ""},
		{`42`, "42"},
	}
	for _, tt := range tests {
		var b Body
		if err := json.Unmarshal([]byte(tt.in), &b); err != nil {
			t.Errorf("unmarshal %s: %v", tt.in, err)
			continue
		}
		if b.String() != tt.want {
			t.Errorf("body %s: want %q, got %q", tt.in, tt.want, b.String())
		}
	}
}

func TestLogEntryOptionalFields(t *testing.T) {
	var e LogEntry
	if err := json.Unmarshal([]byte(`{"method":"GET","status":null,"has_db_logs":true}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Status != nil || e.DurationMs != nil {
		t.Errorf("want absent status and duration, got %v %v", e.Status, e.DurationMs)
	}
	if !e.HasDBLogs {
		t.Error("want has_db_logs decoded")
	}
}
