package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/domain/profiles"
	"bovine-monitoring/internal/ports/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
)

type testStore struct {
	objects   map[string][]byte
	opts      map[string]objectstore.UploadOptions
	uploads   int
	deleted   []string
	uploadErr error
}

func newTestStore() *testStore {
	return &testStore{objects: map[string][]byte{}, opts: map[string]objectstore.UploadOptions{}}
}

func (s *testStore) Upload(_ context.Context, p string, data []byte, opts objectstore.UploadOptions) error {
	s.uploads++
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[p] = data
	s.opts[p] = opts
	return nil
}

func (s *testStore) Delete(_ context.Context, paths ...string) error {
	for _, p := range paths {
		if _, ok := s.objects[p]; !ok {
			return objectstore.ErrNotFound
		}
		delete(s.objects, p)
		s.deleted = append(s.deleted, p)
	}
	return nil
}

func (s *testStore) List(_ context.Context, prefix string) ([]objectstore.Object, error) {
	out := make([]objectstore.Object, 0)
	for p, data := range s.objects {
		if strings.HasPrefix(p, prefix+"/") {
			out = append(out, objectstore.Object{Path: p, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (s *testStore) PublicURL(p string) string { return "https://cdn.test/" + p }

type testProfiles struct {
	err  error
	urls map[string]string
}

func (t *testProfiles) SetImageURL(_ context.Context, userID, url string) (profiles.Profile, error) {
	if t.err != nil {
		return profiles.Profile{}, t.err
	}
	t.urls[userID] = url
	return profiles.Profile{ID: userID, ImageURL: &url}, nil
}

func newTestService() (*Service, *testStore, *testProfiles) {
	store := newTestStore()
	pu := &testProfiles{urls: map[string]string{}}
	svc := NewService(store, pu)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	svc.newID = func() (string, error) { return "abcd1234", nil }
	return svc, store, pu
}

func TestUploadProfileImage_StoresAndUpdatesProfile(t *testing.T) {
	svc, store, pu := newTestService()

	st, err := svc.UploadProfileImage(context.Background(), "user-1", Upload{FileName: "yo.PNG", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)

	assert.Equal(t, "perfiles/user-1/20240506_070809_abcd1234.png", st.Path)
	assert.Equal(t, "https://cdn.test/"+st.Path, st.PublicURL)
	assert.Equal(t, "yo.PNG", st.FileName)
	assert.Equal(t, st.PublicURL, pu.urls["user-1"])
	assert.Equal(t, objectstore.UploadOptions{ContentType: "image/png", CacheControl: "3600"}, store.opts[st.Path])
}

func TestUploadProfileImage_CompensatesOnProfileFailure(t *testing.T) {
	svc, store, pu := newTestService()
	pu.err = domainerr.NotFound("profile not found")

	_, err := svc.UploadProfileImage(context.Background(), "user-1", Upload{FileName: "a.jpg", Data: jpegBytes})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))

	assert.Equal(t, 1, store.uploads)
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)
}

func TestUploadProfileImage_RejectsBeforeUpload(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	cases := map[string]Upload{
		"declared type": {ContentType: "application/pdf", Data: pngBytes},
		"sniffed type":  {ContentType: "image/png", Data: pdfBytes},
		"too large":     {ContentType: "image/png", Data: append(bytes.Clone(pngBytes), make([]byte, MaxImageSize)...)},
		"empty":         {ContentType: "image/png"},
		"text as image": {Data: []byte("hola mundo")},
	}
	for name, up := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UploadProfileImage(ctx, "user-1", up)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))
		})
	}
	assert.Equal(t, 0, store.uploads)
}

func TestUploadProfileImage_StoreFailureIsInternal(t *testing.T) {
	svc, store, pu := newTestService()
	store.uploadErr = errors.New("bucket down")

	_, err := svc.UploadProfileImage(context.Background(), "user-1", Upload{Data: pngBytes})
	require.Error(t, err)
	assert.Equal(t, "", domainerr.DetailOf(err))
	assert.Empty(t, pu.urls)
}

func TestUploadImages_ReportsFailures(t *testing.T) {
	svc, store, _ := newTestService()
	n := 0
	svc.newID = func() (string, error) {
		n++
		return strings.Repeat(string(rune('a'+n)), 8), nil
	}

	res, err := svc.UploadImages(context.Background(), "user-1", []Upload{
		{FileName: "vaca.jpg", Data: jpegBytes},
		{FileName: "doc.pdf", Data: pdfBytes},
		{FileName: "toro.png", Data: pngBytes},
	})
	require.NoError(t, err)
	assert.Len(t, res.Uploaded, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "doc.pdf", res.Failed[0].FileName)
	assert.Len(t, store.objects, 2)
	for p := range store.objects {
		assert.True(t, strings.HasPrefix(p, "bovinos/user-1/"))
	}

	_, err = svc.UploadImages(context.Background(), "user-1", make([]Upload, MaxFilesPerUpload+1))
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))
}

func TestListAndDelete_ScopedToCaller(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	store.objects["bovinos/user-1/a.jpg"] = jpegBytes
	store.objects["bovinos/user-2/b.jpg"] = jpegBytes

	items, err := svc.List(ctx, "user-1", "bovinos")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a.jpg", items[0].Name)
	assert.Equal(t, "https://cdn.test/bovinos/user-1/a.jpg", items[0].PublicURL)

	_, err = svc.List(ctx, "user-1", "otros")
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	for _, p := range []string{"bovinos/user-2/b.jpg", "bovinos/user-1/../user-2/b.jpg", "bovinos/user-1/", "user-1/a.jpg"} {
		assert.True(t, errors.Is(svc.Delete(ctx, "user-1", p), domainerr.ErrNotFound), p)
	}
	assert.Contains(t, store.objects, "bovinos/user-2/b.jpg")

	require.NoError(t, svc.Delete(ctx, "user-1", "bovinos/user-1/a.jpg"))
	assert.True(t, errors.Is(svc.Delete(ctx, "user-1", "bovinos/user-1/a.jpg"), domainerr.ErrNotFound))
}

func TestDecodeDataURL(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(pngBytes)

	up, err := DecodeDataURL("data:image/png;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, pngBytes, up.Data)

	up, err = DecodeDataURL(enc)
	require.NoError(t, err)
	assert.Equal(t, "", up.ContentType)

	_, err = DecodeDataURL("data:image/png," + enc)
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))

	_, err = DecodeDataURL("data:image/png;base64,@@@")
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))

	huge := strings.Repeat("A", int(base64Len(MaxImageSize))+8)
	_, err = DecodeDataURL(huge)
	assert.Equal(t, "file exceeds the 10MB limit", domainerr.DetailOf(err))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpeg", extensionFor("foto.JPEG", "image/jpeg"))
	assert.Equal(t, ".jpg", extensionFor("foto.png", "image/jpeg"))
	assert.Equal(t, ".webp", extensionFor("", "image/webp"))
}
