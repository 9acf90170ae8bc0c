package config

import (
	"errors"
	"reflect"
	"testing"
)

func TestProperties_GetString(t *testing.T) {
	p := NewProperties(map[string]string{"broker.id": "3"})

	got, err := p.GetString("broker.id")
	if err != nil || got != "3" {
		t.Errorf("GetString() = %q, %v, want 3, nil", got, err)
	}

	_, err = p.GetString("missing")
	if !errors.Is(err, ErrMissingProperty) {
		t.Errorf("GetString(missing) error = %v, want ErrMissingProperty", err)
	}
}

func TestProperties_GetInt(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		present bool
		want    int
		wantErr error
	}{
		{"valid", "9092", true, 9092, nil},
		{"with spaces", " 42 ", true, 42, nil},
		{"not a number", "abc", true, 0, ErrInvalidProperty},
		{"missing", "", false, 0, ErrMissingProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProperties(nil)
			if tt.present {
				p.Set("port", tt.value)
			}
			got, err := p.GetInt("port")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetInt() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("GetInt() = %d, %v, want %d", got, err, tt.want)
			}
		})
	}
}

func TestProperties_GetIntInRange(t *testing.T) {
	p := NewProperties(map[string]string{"a": "5", "b": "0"})

	if got, err := p.GetIntInRange("a", 1, 1, 10); err != nil || got != 5 {
		t.Errorf("GetIntInRange(a) = %d, %v, want 5", got, err)
	}
	if got, err := p.GetIntInRange("absent", 7, 1, 10); err != nil || got != 7 {
		t.Errorf("GetIntInRange(absent) = %d, %v, want default 7", got, err)
	}
	if _, err := p.GetIntInRange("b", 1, 1, 10); !errors.Is(err, ErrInvalidProperty) {
		t.Errorf("GetIntInRange(b) error = %v, want ErrInvalidProperty", err)
	}
}

func TestProperties_GetBool(t *testing.T) {
	p := NewProperties(map[string]string{"on": "true", "bad": "maybe"})

	if got, err := p.GetBool("on", false); err != nil || !got {
		t.Errorf("GetBool(on) = %v, %v, want true", got, err)
	}
	if got, err := p.GetBool("absent", true); err != nil || !got {
		t.Errorf("GetBool(absent) = %v, %v, want default true", got, err)
	}
	if _, err := p.GetBool("bad", false); !errors.Is(err, ErrInvalidProperty) {
		t.Errorf("GetBool(bad) error = %v, want ErrInvalidProperty", err)
	}
}

func TestProperties_GetCSV(t *testing.T) {
	p := NewProperties(map[string]string{"list": " a, b ,,c "})

	want := []string{"a", "b", "c"}
	if got := p.GetCSV("list"); !reflect.DeepEqual(got, want) {
		t.Errorf("GetCSV() = %v, want %v", got, want)
	}
	if got := p.GetCSV("absent"); got != nil {
		t.Errorf("GetCSV(absent) = %v, want nil", got)
	}
}

func TestProperties_CloneIsIndependent(t *testing.T) {
	original := NewProperties(map[string]string{"port": "9092"})
	clone := original.Clone()
	clone.Set("metadata.broker.list", "localhost:9092")

	if original.Contains("metadata.broker.list") {
		t.Error("Set on clone leaked into original")
	}
	if got := clone.Keys(); !reflect.DeepEqual(got, []string{"metadata.broker.list", "port"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestProperties_ZeroValueSet(t *testing.T) {
	var p Properties
	p.Set("k", "v")
	if v, ok := p.Lookup("k"); !ok || v != "v" {
		t.Errorf("Lookup() = %q, %v, want v, true", v, ok)
	}
}
