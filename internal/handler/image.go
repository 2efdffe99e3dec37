package handler

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/repository"
	"github.com/iliyamo/land-rent-service/internal/storage"
)

// allowed upload content types; everything else is rejected before
// any byte touches disk.
var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ImageCatalog is what the image and land handlers need from the
// images table. It is satisfied by *repository.ImageRepo.
type ImageCatalog interface {
	Create(ctx context.Context, im model.Image) (uint64, error)
	GetForLand(ctx context.Context, imageID, landID uint64) (model.Image, error)
	ListByLand(ctx context.Context, landID uint64) ([]model.Image, error)
	UpdateLabel(ctx context.Context, imageID, landID uint64, label string) error
	Delete(ctx context.Context, id uint64) error
}

var _ ImageCatalog = (*repository.ImageRepo)(nil)

// ImageHandler manages the images attached to a land. All routes
// are admin-only.
type ImageHandler struct {
	Images ImageCatalog
	Files  *storage.ImageStore
}

func NewImageHandler(images ImageCatalog, files *storage.ImageStore) *ImageHandler {
	if images == nil || files == nil {
		panic("nil dependency passed to NewImageHandler")
	}
	return &ImageHandler{Images: images, Files: files}
}

type imageOut struct {
	ID     uint64 `json:"id"`
	LandID uint64 `json:"land_id"`
	Label  string `json:"label"`
	URL    string `json:"url"`
}

func toImageOut(im model.Image) imageOut {
	return imageOut{ID: im.ID, LandID: im.LandID, Label: im.Label, URL: im.URL}
}

// Upload handles POST /v1/lands/:id/images (admin, multipart). One
// request may carry several files; every part is type-checked
// before the first byte touches disk. Each file is written first
// and its DB row inserted second; if the insert fails the file is
// removed so the two stores stay in step. A failed disk write is a
// hard error, never a silent success.
func (h *ImageHandler) Upload(c echo.Context) error {
	landID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one file is required"})
	}
	var files []*multipart.FileHeader
	for _, fhs := range form.File {
		files = append(files, fhs...)
	}
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one file is required"})
	}
	for _, fh := range files {
		if !imageTypes[fh.Header.Get("Content-Type")] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "only jpeg and png images are accepted"})
		}
	}
	// An explicit label only makes sense for a single upload; in a
	// batch every file keeps its own name.
	label := c.FormValue("label")

	ctx, cancel := reqCtx(c)
	defer cancel()

	out := make([]imageOut, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
		}
		storedName, url, err := h.Files.Save(src, fh.Filename)
		src.Close()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
		}

		im := model.Image{LandID: landID, Label: fh.Filename, StoredName: storedName, URL: url}
		if label != "" && len(files) == 1 {
			im.Label = label
		}
		id, err := h.Images.Create(ctx, im)
		if err != nil {
			if rmErr := h.Files.Remove(storedName); rmErr != nil {
				c.Logger().Warnf("orphan image file %s: %v", storedName, rmErr)
			}
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "land not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
		}
		im.ID = id
		out = append(out, toImageOut(im))
	}
	return c.JSON(http.StatusCreated, out)
}

// UpdateLabel handles PATCH /v1/lands/:id/images/:image_id (admin).
func (h *ImageHandler) UpdateLabel(c echo.Context) error {
	landID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := pathID(c, "image_id")
	if err != nil {
		return err
	}
	var req struct {
		Label string `json:"label"`
	}
	if err := c.Bind(&req); err != nil || req.Label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Images.UpdateLabel(ctx, imageID, landID, req.Label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	im, err := h.Images.GetForLand(ctx, imageID, landID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toImageOut(im))
}

// Delete handles DELETE /v1/lands/:id/images/:image_id (admin). The
// row is removed first, then the file; a leftover file only costs
// disk space, a dangling row would keep serving a dead URL.
func (h *ImageHandler) Delete(c echo.Context) error {
	landID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := pathID(c, "image_id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	im, err := h.Images.GetForLand(ctx, imageID, landID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Images.Delete(ctx, imageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := h.Files.Remove(im.StoredName); err != nil {
		c.Logger().Warnf("orphan image file %s: %v", im.StoredName, err)
	}
	return okMsg(c, http.StatusOK, "Image deleted successfully")
}
