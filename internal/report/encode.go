package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soltixdb/dbstats/internal/stats"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Format is a summary encoding
type Format string

const (
	FormatJSON     Format = "json"
	FormatProtobuf Format = "protobuf"
)

// ParseFormat accepts json, protobuf (or pb), case-insensitive
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "protobuf", "pb":
		return FormatProtobuf, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: json, protobuf)", s)
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	if f == FormatProtobuf {
		return ".pb"
	}
	return ".json"
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	if f == FormatProtobuf {
		return "application/x-protobuf"
	}
	return "application/json"
}

// ToStruct converts a summary to a protobuf Struct with the JSON field names.
// Undefined statistics become null values.
func ToStruct(sum stats.Summary) (*structpb.Struct, error) {
	return StructOf(sum)
}

// StructOf converts any JSON encodable object into a Struct using its JSON
// field names.
func StructOf(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// Encode serializes the summary. Protobuf output is a binary
// google.protobuf.Struct.
func Encode(sum stats.Summary, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.Marshal(sum)
	case FormatProtobuf:
		st, err := ToStruct(sum)
		if err != nil {
			return nil, fmt.Errorf("failed to convert summary: %w", err)
		}
		return proto.Marshal(st)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// DecodeStruct parses a protobuf encoded summary into a generic map
func DecodeStruct(data []byte) (map[string]interface{}, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}
