package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"go.uber.org/multierr"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000IHDR")

type stubStore struct {
	uploads   map[string][]byte
	types     map[string]string
	deleted   []string
	uploadErr error
	deleteErr map[string]error
}

func newStubStore() *stubStore {
	return &stubStore{uploads: map[string][]byte{}, types: map[string]string{}, deleteErr: map[string]error{}}
}

func (s *stubStore) Upload(_ context.Context, object, contentType string, body io.Reader) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.uploads[object] = b
	s.types[object] = contentType
	return nil
}

func (s *stubStore) Delete(_ context.Context, object string) error {
	s.deleted = append(s.deleted, object)
	return s.deleteErr[object]
}

func (s *stubStore) PublicURL(object string) string {
	return "https://cdn.example.com/bucket/" + object
}

func newTestService(t *testing.T, store *stubStore) Service {
	t.Helper()
	svc, err := NewService(store, 1, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestStoreUploadsSniffedImage(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 2048)...)
	stored, err := svc.Store(context.Background(), "products/thumbnails", Upload{
		FileName:    "My Shirt",
		ContentType: "application/octet-stream",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(stored.Key, "products/thumbnails/") || !strings.HasSuffix(stored.Key, "/My-Shirt.png") {
		t.Fatalf("unexpected key %s", stored.Key)
	}
	if stored.URL != "https://cdn.example.com/bucket/"+stored.Key {
		t.Fatalf("unexpected url %s", stored.URL)
	}
	if !bytes.Equal(store.uploads[stored.Key], body) {
		t.Fatal("uploaded body does not match the input")
	}
	if store.types[stored.Key] != "image/png" {
		t.Fatalf("unexpected content type %s", store.types[stored.Key])
	}
}

func TestStoreRejects(t *testing.T) {
	cases := []struct {
		name   string
		upload Upload
	}{
		{name: "missing body", upload: Upload{FileName: "a.png"}},
		{name: "empty", upload: Upload{FileName: "a.png", Body: bytes.NewReader(nil)}},
		{name: "not an image", upload: Upload{FileName: "a.pdf", Body: strings.NewReader("%PDF-1.4 hello")}},
		{name: "too large", upload: Upload{FileName: "a.png", Size: 2 << 20, Body: bytes.NewReader(pngHeader)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStubStore()
			svc := newTestService(t, store)
			_, err := svc.Store(context.Background(), "products", tc.upload)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(store.uploads) != 0 {
				t.Fatal("nothing should be uploaded")
			}
		})
	}
}

func TestStoreSurfacesUploadFailure(t *testing.T) {
	store := newStubStore()
	store.uploadErr = errors.New("bucket unavailable")
	svc := newTestService(t, store)

	_, err := svc.Store(context.Background(), "products", Upload{FileName: "a.png", Body: bytes.NewReader(pngHeader)})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDeleteAttemptsEveryKey(t *testing.T) {
	store := newStubStore()
	store.deleteErr["a"] = errors.New("boom a")
	store.deleteErr["c"] = errors.New("boom c")
	svc := newTestService(t, store)

	err := svc.Delete(context.Background(), "a", "", "b", "c")
	if len(store.deleted) != 3 {
		t.Fatalf("expected three delete attempts, got %v", store.deleted)
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected two combined errors, got %d (%v)", got, err)
	}
}

func TestBuildKeySanitizes(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	cases := map[string]string{
		"../../etc/passwd.png": "products/11111111-1111-1111-1111-111111111111/passwd.png",
		"  summer tee.jpg ":    "products/11111111-1111-1111-1111-111111111111/summer-tee.jpg",
		"":                     "products/11111111-1111-1111-1111-111111111111/image.jpg",
	}
	for in, want := range cases {
		if got := buildKey("/products/", id, in, "image/jpeg"); got != want {
			t.Fatalf("buildKey(%q) = %q, want %q", in, got, want)
		}
	}
}
