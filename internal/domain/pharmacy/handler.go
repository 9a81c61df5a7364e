package pharmacy

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
	api.GET("/medicines", h.List)
	api.GET("/medicines/:id", h.Get)
	api.GET("/medicines/:id/movements", h.Movements)

	write := api.Group("", auth.RequireRole("pharmacy"))
	write.POST("/medicines", h.Create)
	write.PATCH("/medicines/:id", h.Patch)
	write.PATCH("/medicines/:id/stock", h.AdjustStock)
}

func (h *Handler) Create(c echo.Context) error {
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	created, err := h.svc.AddMedicine(c.Request().Context(), &m)
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
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	lowOnly, _ := strconv.ParseBool(c.QueryParam("low_stock"))
	items, total, err := h.svc.List(c.Request().Context(), lowOnly, pg.Limit, pg.Offset)
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
	m, err := h.svc.Apply(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) AdjustStock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("invalid id")
	}
	var body struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	m, err := h.svc.AdjustStock(c.Request().Context(), id, body.Delta, body.Reason, nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Movements(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Movements(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
