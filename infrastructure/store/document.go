// Package store persists the dataset cache and the send log.
package store

import (
	"errors"
	"fmt"
	"os"

	"ncs-birthday-mailer/infrastructure/filesystem"

	"gopkg.in/yaml.v3"
)

// ErrIncompatible is returned when a file was written with another schema
// or version.
var ErrIncompatible = errors.New("incompatible state file")

// Meta is the self-describing prefix of every state document.
type Meta struct {
	Schema  string `yaml:"schema"`
	Version int    `yaml:"version"`
}

func (h Meta) check(schema string, version int) error {
	if h.Schema != schema || h.Version != version {
		return fmt.Errorf("%w: got %s v%d, want %s v%d", ErrIncompatible, h.Schema, h.Version, schema, version)
	}
	return nil
}

// readDocument decodes path into doc. found is false when the file does not
// exist.
func readDocument(path string, doc any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return true, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return true, nil
}

func writeDocument(path string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return filesystem.WriteFileAtomic(path, data, 0644)
}

func removeDocument(path string) error {
	_, err := filesystem.RemoveIfExists(path)
	return err
}
