// Package reporting evaluates predefined dashboard measures directly against
// the source-of-truth tables. Aggregates are computed on demand and never
// persisted, so they cannot drift from the records they summarize.
package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/mediflow/clinic/internal/platform/auth"
	"github.com/mediflow/clinic/pkg/errs"
)

// Measure defines one dashboard figure and the SQL that produces it.
type Measure struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"-"`
}

// Report holds the evaluated rows of one measure.
type Report struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// Measures is the dashboard's fixed measure set.
var Measures = []Measure{
	{
		ID:          "patient-count",
		Name:        "Patient Count",
		Description: "Total registered patients",
		SQL:         `SELECT COUNT(*) AS total FROM patient`,
	},
	{
		ID:          "appointments-today",
		Name:        "Appointments Today",
		Description: "Appointments starting today, grouped by status",
		SQL: `SELECT status, COUNT(*) AS total FROM appointment
			WHERE start_at >= date_trunc('day', NOW()) AND start_at < date_trunc('day', NOW()) + interval '1 day'
			GROUP BY status ORDER BY total DESC`,
	},
	{
		ID:          "monthly-revenue",
		Name:        "Monthly Revenue",
		Description: "Paid amounts over non-void bills created this month",
		SQL: `SELECT COALESCE(SUM(paid), 0) AS revenue FROM bill
			WHERE status <> 'void' AND created_at >= date_trunc('month', NOW())`,
	},
	{
		ID:          "pending-bills",
		Name:        "Pending Bills",
		Description: "Bills not yet settled, by status",
		SQL: `SELECT status, COUNT(*) AS total, COALESCE(SUM(total - paid), 0) AS outstanding
			FROM bill WHERE status IN ('unpaid','partial') GROUP BY status`,
	},
	{
		ID:          "available-beds",
		Name:        "Available Beds",
		Description: "Free and occupied beds per room type",
		SQL: `SELECT r.type, COUNT(*) FILTER (WHERE NOT b.occupied) AS available,
			COUNT(*) FILTER (WHERE b.occupied) AS occupied
			FROM bed b JOIN room r ON r.id = b.room_id
			GROUP BY r.type ORDER BY r.type`,
	},
	{
		ID:          "department-appointment-volume",
		Name:        "Department Appointment Volume",
		Description: "Active and completed appointments per doctor specialization",
		SQL: `SELECT d.specialization, COUNT(*) AS total FROM appointment a
			JOIN doctor d ON d.id = a.doctor_id
			WHERE a.status <> 'cancelled'
			GROUP BY d.specialization ORDER BY total DESC`,
	},
	{
		ID:          "low-stock-medicines",
		Name:        "Low Stock Medicines",
		Description: "Medicines at or below their minimum stock threshold",
		SQL: `SELECT name, sku, stock, min_stock_threshold FROM medicine
			WHERE stock <= min_stock_threshold ORDER BY stock`,
	},
}

// FindMeasure looks a measure up by id.
func FindMeasure(id string) *Measure {
	for i := range Measures {
		if Measures[i].ID == id {
			return &Measures[i]
		}
	}
	return nil
}

type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reports := api.Group("/reports", auth.RequireRole("admin", "doctor"))
	reports.GET("/measures", h.ListMeasures)
	reports.GET("/measures/:id", h.EvaluateMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, Measures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	m := FindMeasure(c.Param("id"))
	if m == nil {
		return errs.NotFound("measure %s not found", c.Param("id"))
	}

	results, err := h.query(c.Request().Context(), m.SQL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Report{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	})
}

// query runs the measure SQL and renders each row as a column-name map.
func (h *Handler) query(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
