package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/rental"
	"github.com/iliyamo/land-rent-service/internal/repository"
	"github.com/iliyamo/land-rent-service/internal/storage"
)

// LandStore is what the land handler needs from the lands table.
// It is satisfied by *repository.LandRepo.
type LandStore interface {
	Create(ctx context.Context, l model.Land) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Land, error)
	Search(ctx context.Context, f repository.LandFilter, skip, limit int) ([]model.Land, error)
	UpdatePartial(ctx context.Context, id uint64, p repository.LandPatch) error
	Delete(ctx context.Context, id uint64) error
}

var _ LandStore = (*repository.LandRepo)(nil)

// LandHandler serves the land directory. Creation and mutation are
// admin operations; search and detail lookups are open to any
// authenticated user.
type LandHandler struct {
	Lands   LandStore
	Images  ImageCatalog
	Machine *rental.Machine
	Files   *storage.ImageStore
}

func NewLandHandler(lands LandStore, images ImageCatalog, m *rental.Machine, files *storage.ImageStore) *LandHandler {
	if lands == nil || images == nil || m == nil || files == nil {
		panic("nil dependency passed to NewLandHandler")
	}
	return &LandHandler{Lands: lands, Images: images, Machine: m, Files: files}
}

type landReq struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Location    string   `json:"location"`
	Size        *float64 `json:"size"`
	Description *string  `json:"description"`
}

type landOut struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Location    string   `json:"location"`
	Size        *float64 `json:"size"`
	Description *string  `json:"description"`
}

type landDetailOut struct {
	landOut
	Borrowed   bool       `json:"borrowed"`
	BorrowerID *uint64    `json:"borrower_id,omitempty"`
	Images     []imageOut `json:"images"`
}

func toLandOut(l model.Land) landOut {
	return landOut{
		ID:          l.ID,
		Name:        l.Name,
		Address:     l.Address,
		Location:    l.Location,
		Size:        l.Size,
		Description: l.Description,
	}
}

// Create handles POST /v1/lands (admin). Land names are unique; a
// second land with the same name is a 409.
func (h *LandHandler) Create(c echo.Context) error {
	var req landReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Address == "" || req.Location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, address and location are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l := model.Land{
		Name:        req.Name,
		Address:     req.Address,
		Location:    req.Location,
		Size:        req.Size,
		Description: req.Description,
	}
	id, err := h.Lands.Create(ctx, l)
	if err != nil {
		if errors.Is(err, repository.ErrLandNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "land name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	l.ID = id
	return c.JSON(http.StatusCreated, toLandOut(l))
}

// Search handles GET /v1/lands. All filters are optional; an empty
// result set is a 404 so clients can tell "nothing matched" from an
// empty page of a larger set.
func (h *LandHandler) Search(c echo.Context) error {
	skip, limit := pagination(c)

	var f repository.LandFilter
	if v := c.QueryParam("address"); v != "" {
		f.Address = &v
	}
	if v := c.QueryParam("location"); v != "" {
		f.Location = &v
	}
	if v := c.QueryParam("description"); v != "" {
		f.Description = &v
	}
	if v := c.QueryParam("size_min"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "size_min must be a number"})
		}
		f.SizeMin = &n
	}
	if v := c.QueryParam("size_max"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "size_max must be a number"})
		}
		f.SizeMax = &n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	lands, err := h.Lands.Search(ctx, f, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(lands) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no lands found"})
	}
	out := make([]landOut, 0, len(lands))
	for _, l := range lands {
		out = append(out, toLandOut(l))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/lands/:id. The detail view includes the
// land's images and its current borrower, if any.
func (h *LandHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Lands.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "land not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := landDetailOut{landOut: toLandOut(l), Images: []imageOut{}}

	borrower, active, err := h.Machine.Borrower(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if active {
		out.Borrowed = true
		out.BorrowerID = &borrower
	}

	imgs, err := h.Images.ListByLand(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	for _, im := range imgs {
		out.Images = append(out.Images, toImageOut(im))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PATCH /v1/lands/:id (admin). Only the fields
// present in the body change.
func (h *LandHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Name        *string  `json:"name"`
		Address     *string  `json:"address"`
		Location    *string  `json:"location"`
		Size        *float64 `json:"size"`
		Description *string  `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	patch := repository.LandPatch{
		Name:        req.Name,
		Address:     req.Address,
		Location:    req.Location,
		Size:        req.Size,
		Description: req.Description,
	}
	if err := h.Lands.UpdatePartial(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrLandNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "land name already exists"})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "land not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	l, err := h.Lands.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toLandOut(l))
}

// Delete handles DELETE /v1/lands/:id (admin). Image rows cascade
// with the land; the files on disk are removed afterwards on a
// best-effort basis, since the DB row is already gone.
func (h *LandHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	imgs, err := h.Images.ListByLand(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Lands.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "land not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	for _, im := range imgs {
		if err := h.Files.Remove(im.StoredName); err != nil {
			c.Logger().Warnf("orphan image file %s: %v", im.StoredName, err)
		}
	}
	return okMsg(c, http.StatusOK, "Land deleted successfully")
}
