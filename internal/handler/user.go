package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/land-rent-service/internal/config"
	"github.com/iliyamo/land-rent-service/internal/middleware"
	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/repository"
	"github.com/iliyamo/land-rent-service/internal/utils"
)

// UserHandler exposes the user directory: listing for admins,
// self-service profile updates, and admin account management.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	if u == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: u}
}

// List handles GET /v1/users (admin). An empty page is a 404, not
// an error.
func (h *UserHandler) List(c echo.Context) error {
	skip, limit := pagination(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(users) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no users found"})
	}
	out := make([]userOut, 0, len(users))
	for _, u := range users {
		out = append(out, toUserOut(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/users/:id. A user may read themselves; only
// admins may read others.
func (h *UserHandler) Get(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if id != caller.ID && !caller.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserOut(u))
}

type userUpdateReq struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
}

// UpdateSelf handles PATCH /v1/users. Only fields present in the
// body are touched; a new password is re-hashed before it is
// stored.
func (h *UserHandler) UpdateSelf(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)

	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	patch := repository.UserPatch{
		Username:    req.Username,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
		}
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
		patch.PasswordHash = &hash
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdatePartial(ctx, caller.ID, patch); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, caller.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserOut(u))
}

type adminUpdateReq struct {
	Role     *string `json:"role"`
	Disabled *bool   `json:"disabled"`
}

// UpdateAdmin handles PUT /v1/users/:id (admin). This is the only
// path that changes a user's role or disabled flag.
func (h *UserHandler) UpdateAdmin(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req adminUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Role != nil && !model.ValidRole(*req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err = h.Users.UpdateAdmin(ctx, id, repository.AdminPatch{Role: req.Role, Disabled: req.Disabled})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserOut(u))
}

// DeleteSelf handles DELETE /v1/users. The row goes away along with
// the caller's rentals and authored chat messages (cascade in the
// schema).
func (h *UserHandler) DeleteSelf(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, caller.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return okMsg(c, http.StatusOK, "Deleted successfully")
}

// DeleteByID handles DELETE /v1/users/:id (admin).
func (h *UserHandler) DeleteByID(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return okMsg(c, http.StatusOK, "User deleted successfully")
}
