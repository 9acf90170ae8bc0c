package reporter

import (
	"reflect"
	"testing"

	"github.com/source-open/metrics-kafka/internal/config"
)

func sampleRecord() Record {
	return Record{
		Reporter:    "broker0",
		Name:        "broker_request_latency_seconds",
		Type:        TypeHistogram,
		Help:        "Request handling latency",
		Labels:      map[string]string{"request": "produce"},
		Value:       0.02,
		Count:       2,
		Sum:         0.04,
		Buckets:     map[string]uint64{"0.008": 0, "0.032": 2},
		TimestampMs: 1700000000000,
	}
}

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		serializer  string
		contentType string
		wantErr     bool
	}{
		{"", ContentTypeJSON, false},
		{config.SerializerJSON, ContentTypeJSON, false},
		{config.SerializerProtobuf, ContentTypeProtobuf, false},
		{"avro", "", true},
	}

	for _, tt := range tests {
		enc, err := NewEncoder(tt.serializer)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewEncoder(%q) error = %v, wantErr %v", tt.serializer, err, tt.wantErr)
			continue
		}
		if enc != nil && enc.ContentType() != tt.contentType {
			t.Errorf("NewEncoder(%q).ContentType() = %q, want %q", tt.serializer, enc.ContentType(), tt.contentType)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, enc := range []Encoder{JSONEncoder{}, ProtobufEncoder{}} {
		t.Run(enc.ContentType(), func(t *testing.T) {
			want := sampleRecord()
			payload, err := enc.Encode(want)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(enc.ContentType(), payload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Decode() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode("text/plain", []byte("x")); err == nil {
		t.Error("Decode() with unknown content type should fail")
	}
	if _, err := Decode(ContentTypeJSON, []byte("{")); err == nil {
		t.Error("Decode() with malformed JSON should fail")
	}
	if _, err := Decode(ContentTypeProtobuf, []byte{0xff, 0xff}); err == nil {
		t.Error("Decode() with malformed protobuf should fail")
	}
}
