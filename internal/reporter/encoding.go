package reporter

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/source-open/metrics-kafka/internal/config"
)

// Content types set on the content-type header of every message.
const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"
)

// Message header keys.
const (
	HeaderContentType = "content-type"
	HeaderReporter    = "reporter"
	HeaderBatchID     = "batch_id"
)

// Encoder serializes records for the metrics topic.
type Encoder interface {
	Encode(rec Record) ([]byte, error)
	ContentType() string
}

// NewEncoder returns the encoder for a configured serializer name.
func NewEncoder(serializer string) (Encoder, error) {
	switch serializer {
	case "", config.SerializerJSON:
		return JSONEncoder{}, nil
	case config.SerializerProtobuf:
		return ProtobufEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported serializer %q", serializer)
	}
}

// JSONEncoder encodes records as JSON objects.
type JSONEncoder struct{}

func (JSONEncoder) Encode(rec Record) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return payload, nil
}

func (JSONEncoder) ContentType() string { return ContentTypeJSON }

// ProtobufEncoder encodes records as a google.protobuf.Struct so consumers
// need no generated schema.
type ProtobufEncoder struct{}

func (ProtobufEncoder) Encode(rec Record) ([]byte, error) {
	s, err := structpb.NewStruct(recordFields(rec))
	if err != nil {
		return nil, fmt.Errorf("failed to build record struct: %w", err)
	}
	payload, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return payload, nil
}

func (ProtobufEncoder) ContentType() string { return ContentTypeProtobuf }

// recordFields mirrors the JSON field names so both encodings decode
// into the same Record.
func recordFields(rec Record) map[string]interface{} {
	fields := map[string]interface{}{
		"reporter":     rec.Reporter,
		"name":         rec.Name,
		"type":         rec.Type,
		"value":        rec.Value,
		"timestamp_ms": rec.TimestampMs,
	}
	if rec.Help != "" {
		fields["help"] = rec.Help
	}
	if rec.Count != 0 {
		fields["count"] = rec.Count
	}
	if rec.Sum != 0 {
		fields["sum"] = rec.Sum
	}
	if len(rec.Labels) > 0 {
		m := make(map[string]interface{}, len(rec.Labels))
		for k, v := range rec.Labels {
			m[k] = v
		}
		fields["labels"] = m
	}
	if len(rec.Buckets) > 0 {
		m := make(map[string]interface{}, len(rec.Buckets))
		for k, v := range rec.Buckets {
			m[k] = v
		}
		fields["buckets"] = m
	}
	if len(rec.Quantiles) > 0 {
		m := make(map[string]interface{}, len(rec.Quantiles))
		for k, v := range rec.Quantiles {
			m[k] = v
		}
		fields["quantiles"] = m
	}
	return fields
}

// Decode parses a payload produced by one of the encoders.
func Decode(contentType string, payload []byte) (Record, error) {
	var rec Record
	switch contentType {
	case "", ContentTypeJSON:
		if err := json.Unmarshal(payload, &rec); err != nil {
			return Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
		}
	case ContentTypeProtobuf:
		var s structpb.Struct
		if err := proto.Unmarshal(payload, &s); err != nil {
			return Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		// Struct numbers are float64; a JSON hop restores the typed fields.
		data, err := json.Marshal(s.AsMap())
		if err != nil {
			return Record{}, fmt.Errorf("failed to convert record: %w", err)
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return Record{}, fmt.Errorf("failed to convert record: %w", err)
		}
	default:
		return Record{}, fmt.Errorf("unsupported content type %q", contentType)
	}
	return rec, nil
}
