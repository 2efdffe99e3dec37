package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/land-rent-service/internal/middleware"
	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/queue"
	"github.com/iliyamo/land-rent-service/internal/rental"
	"github.com/iliyamo/land-rent-service/internal/repository"
	queue_publisher "github.com/iliyamo/land-rent-service/internal/service"
)

// LandGetter is the slice of the land repository the rental
// handler needs when enriching activity events.
type LandGetter interface {
	GetByID(ctx context.Context, id uint64) (model.Land, error)
}

// RentalLister lists a user's active rentals together with the
// parcels they hold. Satisfied by *repository.RentalRepo.
type RentalLister interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Rental, []model.Land, error)
}

var (
	_ LandGetter   = (*repository.LandRepo)(nil)
	_ RentalLister = (*repository.RentalRepo)(nil)
)

// RentalHandler maps the borrow / return endpoints onto the rental
// state machine and fans successful transitions out to the activity
// queue.
type RentalHandler struct {
	Machine *rental.Machine
	Lands   LandGetter
	Rentals RentalLister

	// publish sends an activity event to the broker. Swappable so
	// tests can capture events without a running RabbitMQ.
	publish func(ctx context.Context, ev queue.RentalActivityEvent) error
}

func NewRentalHandler(m *rental.Machine, lands LandGetter, rentals RentalLister) *RentalHandler {
	if m == nil || lands == nil || rentals == nil {
		panic("nil dependency passed to NewRentalHandler")
	}
	return &RentalHandler{
		Machine: m,
		Lands:   lands,
		Rentals: rentals,
		publish: queue_publisher.PublishRentalActivity,
	}
}

// Borrow handles POST /v1/lands/:id/borrow. A land can have at most
// one active borrower; a second borrow attempt is a 409 no matter
// how the two requests interleave.
func (h *RentalHandler) Borrow(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	landID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Machine.Borrow(ctx, landID, caller); err != nil {
		switch {
		case errors.Is(err, rental.ErrNotPermitted):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only normal users may borrow land"})
		case errors.Is(err, rental.ErrAlreadyBorrowed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "land is already borrowed"})
		case errors.Is(err, rental.ErrLandNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "land not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "borrow failed"})
		}
	}
	h.announce(ctx, queue.ActionBorrowed, landID, caller.ID, caller.Email, caller.ID)
	return okMsg(c, http.StatusOK, "Land borrowed successfully")
}

// Return handles DELETE /v1/lands/:id/borrow. Only the current
// borrower can return a land.
func (h *RentalHandler) Return(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	landID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Machine.Return(ctx, landID, caller); err != nil {
		switch {
		case errors.Is(err, rental.ErrNoActiveRental):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "land is not borrowed"})
		case errors.Is(err, rental.ErrNotBorrower):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you are not the borrower of this land"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "return failed"})
		}
	}
	h.announce(ctx, queue.ActionReturned, landID, caller.ID, caller.Email, caller.ID)
	return okMsg(c, http.StatusOK, "Land returned successfully")
}

// ForceReturn handles DELETE /v1/lands/:id/borrow/:user_id (admin).
// It ends the named user's rental regardless of who the caller is.
func (h *RentalHandler) ForceReturn(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)
	landID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Machine.ForceReturn(ctx, landID, userID); err != nil {
		switch {
		case errors.Is(err, rental.ErrNoActiveRental):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "land is not borrowed"})
		case errors.Is(err, rental.ErrNotBorrower):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user has no rental on this land"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "return failed"})
		}
	}
	h.announce(ctx, queue.ActionForceReturned, landID, userID, "", caller.ID)
	return okMsg(c, http.StatusOK, "Rental ended successfully")
}

type rentalOut struct {
	LandID    uint64    `json:"land_id"`
	LandName  string    `json:"land_name"`
	Address   string    `json:"address"`
	Location  string    `json:"location"`
	StartedAt time.Time `json:"started_at"`
}

// ListMine handles GET /v1/rentals, the caller's active rentals.
func (h *RentalHandler) ListMine(c echo.Context) error {
	caller, _ := middleware.CurrentUser(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	rentals, lands, err := h.Rentals.ListByUser(ctx, caller.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(rentals) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active rentals"})
	}
	out := make([]rentalOut, 0, len(rentals))
	for i, r := range rentals {
		out = append(out, rentalOut{
			LandID:    r.LandID,
			LandName:  lands[i].Name,
			Address:   lands[i].Address,
			Location:  lands[i].Location,
			StartedAt: r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// announce publishes a rental activity event on a best-effort
// basis. The state change is already committed, so a broker outage
// never rolls the request back. userEmail belongs to the borrower
// named by userID; on a forced release the borrower's email is not
// at hand and stays empty rather than misattributing the admin's.
func (h *RentalHandler) announce(ctx context.Context, action string, landID, userID uint64, userEmail string, actorID uint64) {
	landName := ""
	if l, err := h.Lands.GetByID(ctx, landID); err == nil {
		landName = l.Name
	} else if !errors.Is(err, sql.ErrNoRows) {
		return
	}
	ev := queue.RentalActivityEvent{
		Action:     action,
		LandID:     landID,
		LandName:   landName,
		UserID:     userID,
		UserEmail:  userEmail,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.publish(pctx, ev)
	}()
}
