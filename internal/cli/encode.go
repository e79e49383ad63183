package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// ErrFormat is returned for an unsupported output format.
var ErrFormat = errors.New("unsupported format")

// encoder writes one document per value: JSON lines or a YAML stream.
type encoder interface {
	Encode(v any) error
	Close() error
}

type jsonEncoder struct{ *json.Encoder }

func (jsonEncoder) Close() error { return nil }

func newEncoder(w io.Writer, format string) (encoder, error) {
	switch format {
	case formatJSON:
		return jsonEncoder{json.NewEncoder(w)}, nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return enc, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
}
