package birthday

import (
	"errors"
	"mime"
	"os"
	"path/filepath"

	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/notification"
)

// ErrAttachmentMissing is returned when the greeting image cannot be found.
var ErrAttachmentMissing = errors.New("attachment not found")

// AttachmentLoader provides the image attached to every greeting.
type AttachmentLoader interface {
	LoadAttachment() (*notification.Attachment, error)
}

// FileReader reads whole files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// FileAttachment loads the attachment from disk.
type FileAttachment struct {
	path   string
	reader FileReader
}

// NewFileAttachment creates a loader for path.
func NewFileAttachment(path string, reader FileReader) *FileAttachment {
	return &FileAttachment{path: path, reader: reader}
}

// LoadAttachment reads the file. A missing or empty file is fatal.
func (f *FileAttachment) LoadAttachment() (*notification.Attachment, error) {
	data, err := f.reader.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.Fatalf("%w: %s", ErrAttachmentMissing, f.path)
		}
		return nil, failure.Fatalf("failed to read attachment %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil, failure.Fatalf("%w: %s is empty", ErrAttachmentMissing, f.path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(f.path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &notification.Attachment{
		Filename:    filepath.Base(f.path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
