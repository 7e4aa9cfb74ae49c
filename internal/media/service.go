package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lunaplata/joyeria-backend/pkg/enums"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
	"github.com/lunaplata/joyeria-backend/pkg/storage/gcs"
)

// File is an upload read from a multipart request.
type File struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Object describes a stored blob.
type Object struct {
	URL         string `json:"url"`
	Object      string `json:"object"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type objectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, object string) error
}

// Service stores product images and payment proofs.
type Service interface {
	Upload(ctx context.Context, kind enums.MediaKind, file File) (*Object, error)
	Delete(ctx context.Context, object string) error
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a media service backed by the provided object store.
func NewService(store objectStore, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		store:    store,
		maxBytes: maxBytes,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Upload(ctx context.Context, kind enums.MediaKind, file File) (*Object, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}
	if file.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if file.Size > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}

	contentType, ext := sniff(data)
	if !isAllowed(kind, contentType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("only %s are allowed", allowedMimeDescription(kind))).
			WithDetails(map[string]any{"content_type": contentType})
	}

	object := s.objectName(kind, ext)
	url, err := s.store.Upload(ctx, object, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"object":       object,
			"content_type": contentType,
			"size":         len(data),
		})
		s.logg.Info(logCtx, "media uploaded")
	}

	return &Object{
		URL:         url,
		Object:      object,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Delete removes a stored object. Objects that are already gone count as
// deleted.
func (s *service) Delete(ctx context.Context, object string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "object is required")
	}
	if err := s.store.Delete(ctx, object); err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	return nil
}

func (s *service) objectName(kind enums.MediaKind, ext string) string {
	now := s.now().UTC()
	return path.Join(
		kind.ObjectPrefix(),
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		uuid.NewString()+ext,
	)
}

func tooLarge(limit int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file exceeds %d MB", limit>>20))
}
