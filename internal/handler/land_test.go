package handler

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/rental"
	"github.com/iliyamo/land-rent-service/internal/repository"
	"github.com/iliyamo/land-rent-service/internal/storage"
)

// fakeLandStore keeps parcels in a map; mutations mirror the
// repository's sql.ErrNoRows contract.
type fakeLandStore struct {
	lands map[uint64]model.Land
}

func (f *fakeLandStore) Create(_ context.Context, l model.Land) (uint64, error) {
	id := uint64(len(f.lands) + 1)
	l.ID = id
	f.lands[id] = l
	return id, nil
}

func (f *fakeLandStore) GetByID(_ context.Context, id uint64) (model.Land, error) {
	l, ok := f.lands[id]
	if !ok {
		return model.Land{}, sql.ErrNoRows
	}
	return l, nil
}

func (f *fakeLandStore) Search(context.Context, repository.LandFilter, int, int) ([]model.Land, error) {
	out := make([]model.Land, 0, len(f.lands))
	for _, l := range f.lands {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLandStore) UpdatePartial(_ context.Context, id uint64, _ repository.LandPatch) error {
	if _, ok := f.lands[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (f *fakeLandStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.lands[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.lands, id)
	return nil
}

// fakeImageCatalog keeps image rows keyed by land.
type fakeImageCatalog struct {
	nextID uint64
	byID   map[uint64]model.Image
}

func newFakeImageCatalog() *fakeImageCatalog {
	return &fakeImageCatalog{nextID: 1, byID: map[uint64]model.Image{}}
}

func (f *fakeImageCatalog) Create(_ context.Context, im model.Image) (uint64, error) {
	im.ID = f.nextID
	f.byID[im.ID] = im
	f.nextID++
	return im.ID, nil
}

func (f *fakeImageCatalog) GetForLand(_ context.Context, imageID, landID uint64) (model.Image, error) {
	im, ok := f.byID[imageID]
	if !ok || im.LandID != landID {
		return model.Image{}, sql.ErrNoRows
	}
	return im, nil
}

func (f *fakeImageCatalog) ListByLand(_ context.Context, landID uint64) ([]model.Image, error) {
	out := make([]model.Image, 0)
	for _, im := range f.byID {
		if im.LandID == landID {
			out = append(out, im)
		}
	}
	return out, nil
}

func (f *fakeImageCatalog) UpdateLabel(_ context.Context, imageID, landID uint64, label string) error {
	im, err := f.GetForLand(context.Background(), imageID, landID)
	if err != nil {
		return err
	}
	im.Label = label
	f.byID[imageID] = im
	return nil
}

func (f *fakeImageCatalog) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func TestLandDeleteRemovesImageFiles(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewImageStore(dir, "http://localhost/static/images")
	require.NoError(t, err)

	lands := &fakeLandStore{lands: map[uint64]model.Land{
		10: {ID: 10, Name: "north field", Address: "1 Farm Rd", Location: "north"},
	}}
	images := newFakeImageCatalog()
	h := NewLandHandler(lands, images, rental.NewMachine(newFakeRentalStore()), files)

	// Two stored files attached to the parcel, like E2E uploads
	// would leave behind.
	var stored []string
	for _, name := range []string{"front.jpg", "aerial.png"} {
		sn, url, err := files.Save(strings.NewReader("bytes of "+name), name)
		require.NoError(t, err)
		_, err = images.Create(context.Background(), model.Image{LandID: 10, Label: name, StoredName: sn, URL: url})
		require.NoError(t, err)
		stored = append(stored, sn)
	}

	admin := model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}
	c, rec := rentalCtx(http.MethodDelete, "/v1/lands/10", admin, "id", "10")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = lands.GetByID(context.Background(), 10)
	assert.ErrorIs(t, err, sql.ErrNoRows, "land row must be gone")
	for _, sn := range stored {
		_, err := os.Stat(filepath.Join(dir, sn))
		assert.True(t, os.IsNotExist(err), "stored file %s must be removed", sn)
	}
}

func TestLandDeleteMissing(t *testing.T) {
	files, err := storage.NewImageStore(t.TempDir(), "http://x")
	require.NoError(t, err)
	h := NewLandHandler(&fakeLandStore{lands: map[uint64]model.Land{}}, newFakeImageCatalog(),
		rental.NewMachine(newFakeRentalStore()), files)

	admin := model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}
	c, rec := rentalCtx(http.MethodDelete, "/v1/lands/99", admin, "id", "99")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
