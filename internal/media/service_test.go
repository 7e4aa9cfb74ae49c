package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaplata/joyeria-backend/pkg/enums"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/storage/gcs"
)

var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52}

type stubStore struct {
	uploaded    map[string][]byte
	contentType string
	deleteErr   error
	uploadErr   error
	deleted     []string
}

func (s *stubStore) Upload(_ context.Context, object, contentType string, body io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if s.uploaded == nil {
		s.uploaded = map[string][]byte{}
	}
	s.uploaded[object] = data
	s.contentType = contentType
	return "https://storage.googleapis.com/bucket/" + object, nil
}

func (s *stubStore) Delete(_ context.Context, object string) error {
	s.deleted = append(s.deleted, object)
	return s.deleteErr
}

func newTestService(t *testing.T, store *stubStore, maxBytes int64) *service {
	t.Helper()
	svc, err := NewService(store, maxBytes, nil)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return impl
}

func TestUploadProductImage(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store, 1<<20)

	obj, err := svc.Upload(context.Background(), enums.MediaKindProductImage, File{
		Filename: "anillo.bin",
		Body:     bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^products/2026/03/[0-9a-f-]{36}\.png$`), obj.Object)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, "https://storage.googleapis.com/bucket/"+obj.Object, obj.URL)
	assert.Equal(t, pngHeader, store.uploaded[obj.Object])
	assert.EqualValues(t, len(pngHeader), obj.Size)
}

func TestUploadProofAcceptsPDF(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store, 1<<20)

	obj, err := svc.Upload(context.Background(), enums.MediaKindPaymentProof, File{
		Body: bytes.NewReader([]byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Regexp(t, `^proofs/2026/03/.+\.pdf$`, obj.Object)
}

func TestUploadRejectsPDFForProductImage(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store, 1<<20)

	_, err := svc.Upload(context.Background(), enums.MediaKindProductImage, File{
		Body: bytes.NewReader([]byte("%PDF-1.7\n")),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "only images are allowed")
	assert.Empty(t, store.uploaded)
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store, 8)

	_, err := svc.Upload(context.Background(), enums.MediaKindProductImage, File{Body: bytes.NewReader(pngHeader)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Upload(context.Background(), enums.MediaKindProductImage, File{Size: 9, Body: bytes.NewReader(pngHeader[:4])})
	require.Error(t, err)
	assert.Empty(t, store.uploaded)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc := newTestService(t, &stubStore{}, 1<<20)
	_, err := svc.Upload(context.Background(), enums.MediaKindPaymentProof, File{Body: bytes.NewReader(nil)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUploadStoreFailureIsDependencyError(t *testing.T) {
	svc := newTestService(t, &stubStore{uploadErr: errors.New("503")}, 1<<20)
	_, err := svc.Upload(context.Background(), enums.MediaKindProductImage, File{Body: bytes.NewReader(pngHeader)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestDeleteTreatsMissingObjectAsDeleted(t *testing.T) {
	store := &stubStore{deleteErr: gcs.ErrObjectNotFound}
	svc := newTestService(t, store, 1<<20)

	require.NoError(t, svc.Delete(context.Background(), "products/2026/03/x.png"))
	assert.Equal(t, []string{"products/2026/03/x.png"}, store.deleted)

	store.deleteErr = errors.New("boom")
	err := svc.Delete(context.Background(), "products/2026/03/x.png")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	assert.True(t, pkgerrors.IsCode(svc.Delete(context.Background(), " "), pkgerrors.CodeValidation))
}
