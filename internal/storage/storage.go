// Package storage uploads generated statements to an object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pennywise-app/apiserver/config"
)

const (
	BackendNone  = "none"
	BackendMinio = "minio"
	BackendGCS   = "gcs"
)

// Metadata keys attached to every uploaded statement.
const (
	MetaOwnerID = "owner-id"
	MetaRecords = "record-count"
)

// Statement is a rendered statement ready for upload.
type Statement struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	// Filename is offered to browsers through Content-Disposition.
	Filename string
	OwnerID  int
	Records  int
}

func (s Statement) contentDisposition() string {
	if s.Filename == "" {
		return ""
	}
	return fmt.Sprintf("attachment; filename=%q", s.Filename)
}

func (s Statement) metadata() map[string]string {
	return map[string]string{
		MetaOwnerID: strconv.Itoa(s.OwnerID),
		MetaRecords: strconv.Itoa(s.Records),
	}
}

// ObjectStorage defines the object operations shared by every backend.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutStatement(ctx context.Context, stmt Statement) error
	Bucket() string
}

// NewFromConfig builds the backend named by cfg.Storage.Backend and makes
// sure its bucket exists. It returns nil, nil when storage is disabled.
func NewFromConfig(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case BackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return backend, nil
}
