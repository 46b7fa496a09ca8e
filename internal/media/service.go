// Package media stores product images in the object bucket.
package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"go.uber.org/multierr"
)

const sniffLen = 512

type objectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) error
	Delete(ctx context.Context, object string) error
	PublicURL(object string) string
}

// Upload is one file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored identifies an uploaded object.
type Stored struct {
	Key string
	URL string
}

// Service uploads and removes product media.
type Service interface {
	Store(ctx context.Context, folder string, upload Upload) (*Stored, error)
	Delete(ctx context.Context, keys ...string) error
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
}

// NewService constructs a media service over store. maxUploadMB caps each file.
func NewService(store objectStore, maxUploadMB int, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: store, maxBytes: int64(maxUploadMB) << 20, logg: logg}, nil
}

func (s *service) Store(ctx context.Context, folder string, upload Upload) (*Stored, error) {
	if upload.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if upload.Size > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file must be at most %d MB", s.maxBytes>>20)
	}

	// trust the bytes over the client-declared type
	br := bufio.NewReaderSize(upload.Body, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(head) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	mimeType, err := sniffMimeType(http.DetectContentType(head))
	if err != nil || !isAllowedImage(mimeType) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is not a supported image", upload.FileName)
	}

	key := buildKey(folder, uuid.New(), upload.FileName, mimeType)
	if err := s.store.Upload(ctx, key, mimeType, br); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "object", key), "media.upload_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload media")
	}
	return &Stored{Key: key, URL: s.store.PublicURL(key)}, nil
}

// Delete removes every key, attempting all of them and combining failures.
func (s *service) Delete(ctx context.Context, keys ...string) error {
	var errs error
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errs
}

func buildKey(folder string, id uuid.UUID, fileName, mimeType string) string {
	cleanName := sanitizeFileName(fileName)
	ext := extensionFor(mimeType)
	if cleanName == "" {
		cleanName = "image" + ext
	} else if path.Ext(cleanName) == "" {
		cleanName += ext
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "media"
	}
	return fmt.Sprintf("%s/%s/%s", folder, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
