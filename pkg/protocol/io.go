package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/panelgrid/pkg/errors"
)

// Format is a request file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from a file extension. Anything other
// than .yaml or .yml is read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadRequestFile reads and decodes a request file. It does not validate.
func ReadRequestFile(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Request{}, errors.Wrap(errors.ErrCodeNotFound, err, "request file %s", path)
		}
		return Request{}, fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeRequest(data, FormatForPath(path))
}

// ReadRequest decodes a JSON request from r.
func ReadRequest(r io.Reader) (Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}
	return DecodeRequest(data, FormatJSON)
}

// DecodeRequest decodes data in the given format.
func DecodeRequest(data []byte, format Format) (Request, error) {
	var req Request
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &req); err != nil {
			return Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode YAML request")
		}
	case FormatJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return Request{}, errors.New(errors.ErrCodeInvalidRequest, "empty request")
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode JSON request")
		}
	default:
		return Request{}, errors.New(errors.ErrCodeUnsupported, "unsupported request format %q", format)
	}
	return req, nil
}

// WriteResponse writes resp as indented JSON followed by a newline.
func WriteResponse(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// WriteRequest writes req as indented JSON followed by a newline.
func WriteRequest(w io.Writer, req Request) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return nil
}
