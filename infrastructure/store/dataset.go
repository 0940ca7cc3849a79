package store

import (
	"context"

	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/failure"
)

const (
	datasetSchema  = "ncs-birthday-mailer/dataset"
	datasetVersion = 1
)

type datasetDocument struct {
	Meta    `yaml:",inline"`
	Dataset contact.Dataset `yaml:"dataset"`
}

// DatasetFile keeps the cleaned dataset in a YAML file.
type DatasetFile struct {
	path string
}

// NewDatasetFile creates a cache store at path.
func NewDatasetFile(path string) *DatasetFile {
	return &DatasetFile{path: path}
}

// Load returns the cached dataset, or nil when there is none. A cache from
// another schema or version is reported as informational.
func (s *DatasetFile) Load(ctx context.Context) (*contact.Dataset, error) {
	var doc datasetDocument
	found, err := readDocument(s.path, &doc)
	if err != nil || !found {
		return nil, err
	}
	if err := doc.check(datasetSchema, datasetVersion); err != nil {
		return nil, failure.AsInformational(err)
	}
	return &doc.Dataset, nil
}

// Save replaces the cached dataset.
func (s *DatasetFile) Save(ctx context.Context, ds *contact.Dataset) error {
	return writeDocument(s.path, datasetDocument{
		Meta:    Meta{Schema: datasetSchema, Version: datasetVersion},
		Dataset: *ds,
	})
}

// Reset deletes the cache file.
func (s *DatasetFile) Reset(ctx context.Context) error {
	return removeDocument(s.path)
}
