// Package mapping turns a local input document into a Pipedrive person
// payload using an ordered table of source path → destination key pairs.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// IdentityKey is the destination field used to look up an existing person.
const IdentityKey = "name"

var (
	// ErrNoIdentityMapping means the table has no entry for IdentityKey.
	ErrNoIdentityMapping = errors.New("no mapping found for Pipedrive 'name' field")
	// ErrMissingIdentity means the identity source path resolved to nothing.
	ErrMissingIdentity = errors.New("name value missing in input document")
)

// FieldMapping maps a dotted path in the input document to a payload key.
type FieldMapping struct {
	InputKey       string `json:"inputKey" yaml:"inputKey"`
	DestinationKey string `json:"destinationKey" yaml:"destinationKey"`
}

// UnmarshalYAML accepts the legacy "pipedriveKey" spelling for the
// destination key.
func (m *FieldMapping) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		InputKey       string `yaml:"inputKey"`
		DestinationKey string `yaml:"destinationKey"`
		PipedriveKey   string `yaml:"pipedriveKey"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	m.InputKey = raw.InputKey
	m.DestinationKey = raw.DestinationKey
	if m.DestinationKey == "" {
		m.DestinationKey = raw.PipedriveKey
	}
	return nil
}

// Table is the ordered list of field mappings for a run.
type Table []FieldMapping

// Identity returns the first mapping whose destination is IdentityKey.
func (t Table) Identity() (FieldMapping, error) {
	for _, m := range t {
		if m.DestinationKey == IdentityKey {
			return m, nil
		}
	}
	return FieldMapping{}, ErrNoIdentityMapping
}

// Document is a decoded input document.
type Document map[string]interface{}

// Payload is the flat set of Pipedrive person fields sent on update/create.
type Payload map[string]interface{}

// LoadTable reads a mapping table from a JSON or YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// LoadDocument reads a JSON input document from a file.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := DecodeDocument(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// DecodeDocument decodes a JSON object. Numbers are kept as json.Number so
// they reach the payload unchanged.
func DecodeDocument(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("input document is not a JSON object")
	}
	return doc, nil
}
