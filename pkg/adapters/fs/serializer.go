package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/nexia/pkg/schema"
)

// Serializer defines how to read and write a specific file format.
type Serializer interface {
	// Parse reads a notebook document from r.
	Parse(r io.Reader) (*schema.Document, error)
	// Serialize converts the document to bytes.
	Serialize(doc schema.Document) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by file extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": NewJSONSerializer(),
		".yaml": NewYAMLSerializer(),
		".yml":  NewYAMLSerializer(),
	}
}

// serializerFor picks the serializer registered for the extension of path,
// falling back to the one registered for fallbackExt.
func serializerFor(serializers map[string]Serializer, path, fallbackExt string) (Serializer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if s, ok := serializers[ext]; ok {
		return s, nil
	}
	if s, ok := serializers[fallbackExt]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no serializer for %q", ext)
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing pretty printed JSON.
type JSONSerializer struct {
	Indent string
}

func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{Indent: "  "}
}

func (s *JSONSerializer) Parse(r io.Reader) (*schema.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc schema.Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("invalid json: trailing data")
	}
	return &doc, nil
}

func (s *JSONSerializer) Serialize(doc schema.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", s.Indent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML.
type YAMLSerializer struct {
	Indent int
}

func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{Indent: 2}
}

func (s *YAMLSerializer) Parse(r io.Reader) (*schema.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc schema.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if doc.CreatedAt == "" && doc.Notes == nil && doc.Name == "" {
		return nil, fmt.Errorf("invalid yaml: not a notebook document")
	}
	return &doc, nil
}

func (s *YAMLSerializer) Serialize(doc schema.Document) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(s.Indent)
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
