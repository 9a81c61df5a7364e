package billing

import (
	"net/http"

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
	api.GET("/bills", h.List)
	api.GET("/bills/:id", h.Get)

	write := api.Group("", auth.RequireRole("pharmacy", "receptionist"))
	write.POST("/bills", h.Create)
	write.POST("/bills/:id/payments", h.RecordPayment)
	write.PATCH("/bills/:id/void", h.Void)
}

func (h *Handler) Create(c echo.Context) error {
	var b Bill
	if err := c.Bind(&b); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	created, err := h.svc.Create(c.Request().Context(), &b)
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
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var patientID uuid.UUID
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return errs.Validation("invalid patient_id")
		}
		patientID = id
	}

	items, total, err := h.svc.List(c.Request().Context(), patientID, Status(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("invalid id")
	}
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return errs.Validation("invalid request body: %v", err)
	}
	b, err := h.svc.RecordPayment(c.Request().Context(), id, body.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) Void(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("invalid id")
	}
	b, err := h.svc.Void(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}
