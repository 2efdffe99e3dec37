package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/storage"
)

// fkImageCatalog wraps fakeImageCatalog with a set of existing
// lands so Create can enforce the foreign key like MySQL does.
type fkImageCatalog struct {
	*fakeImageCatalog
	lands map[uint64]bool
}

func (f *fkImageCatalog) Create(ctx context.Context, im model.Image) (uint64, error) {
	if !f.lands[im.LandID] {
		return 0, sql.ErrNoRows
	}
	return f.fakeImageCatalog.Create(ctx, im)
}

type uploadPart struct {
	field       string
	filename    string
	contentType string
	body        string
}

func multipartUpload(t *testing.T, parts []uploadPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		hdr.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/lands/10/images", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func uploadCtx(t *testing.T, parts []uploadPart, landID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := multipartUpload(t, parts)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(landID)
	c.Set("user", model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin})
	return c, rec
}

func newUploadHandler(t *testing.T, landIDs ...uint64) (*ImageHandler, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewImageStore(dir, "http://localhost/static/images")
	require.NoError(t, err)
	catalog := &fkImageCatalog{fakeImageCatalog: newFakeImageCatalog(), lands: map[uint64]bool{}}
	for _, id := range landIDs {
		catalog.lands[id] = true
	}
	return NewImageHandler(catalog, files), dir
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestImageUploadBatch(t *testing.T) {
	h, dir := newUploadHandler(t, 10)

	c, rec := uploadCtx(t, []uploadPart{
		{"files", "front.jpg", "image/jpeg", "jpeg bytes"},
		{"files", "aerial.png", "image/png", "png bytes"},
	}, "10")
	require.NoError(t, h.Upload(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var out []imageOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "front.jpg", out[0].Label)
	assert.Equal(t, "aerial.png", out[1].Label)
	for _, im := range out {
		assert.Equal(t, uint64(10), im.LandID)
		assert.NotZero(t, im.ID)
	}
	assert.Equal(t, 2, dirEntries(t, dir), "each upload stores one file")
}

func TestImageUploadRejectsWrongType(t *testing.T) {
	h, dir := newUploadHandler(t, 10)

	// One bad part poisons the whole batch before anything is
	// written.
	c, rec := uploadCtx(t, []uploadPart{
		{"files", "front.jpg", "image/jpeg", "jpeg bytes"},
		{"files", "clip.gif", "image/gif", "gif bytes"},
	}, "10")
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, dirEntries(t, dir), "rejected batch must leave no files behind")
}

func TestImageUploadMissingLandCleansUp(t *testing.T) {
	h, dir := newUploadHandler(t) // no lands exist

	c, rec := uploadCtx(t, []uploadPart{
		{"files", "front.jpg", "image/jpeg", "jpeg bytes"},
	}, "10")
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, dirEntries(t, dir), "file written for a failed insert must be removed")
}

func TestImageUploadNoFiles(t *testing.T) {
	h, _ := newUploadHandler(t, 10)

	c, rec := uploadCtx(t, nil, "10")
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageUploadSingleFileLabel(t *testing.T) {
	h, _ := newUploadHandler(t, 10)

	// A label field applies when exactly one file is uploaded.
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="files"; filename="front.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	pw, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = pw.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("label", "Front gate"))
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/lands/10/images", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("10")

	require.NoError(t, h.Upload(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var out []imageOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Front gate", out[0].Label)
}
