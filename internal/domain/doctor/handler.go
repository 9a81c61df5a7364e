package doctor

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediflow/clinic/internal/platform/auth"
	"github.com/mediflow/clinic/pkg/errs"
	"github.com/mediflow/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.List)
	api.GET("/doctors/:id", h.Get)

	write := api.Group("", auth.RequireRole("receptionist"))
	write.POST("/doctors", h.Create)

	// Doctors toggle their own availability; the handler only gates roles,
	// ownership stays with the credential service.
	patch := api.Group("", auth.RequireRole("doctor", "receptionist"))
	patch.PATCH("/doctors/:id", h.Patch)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.DELETE("/doctors/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	created, err := h.svc.Create(c.Request().Context(), &d)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	onlyAvailable, _ := strconv.ParseBool(c.QueryParam("available"))
	items, total, err := h.svc.List(c.Request().Context(), onlyAvailable, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Patch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("invalid id")
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	d, err := h.svc.Apply(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
