// internal/api/handlers/report_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"field-service-api/internal/models"
	"field-service-api/internal/report"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Exporter uploads a rendered report and returns where it can be fetched.
type Exporter interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

type ReportHandler struct {
	Base
	// Exporter is nil when S3 is not configured.
	Exporter Exporter
}

type ReportRequest struct {
	Name    string `json:"name" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Shift   string `json:"shift" binding:"required"`
	Content string `json:"content"`
}

type GenerateReportRequest struct {
	Date  string `json:"date" binding:"required"`
	Shift string `json:"shift" binding:"required"`
	Name  string `json:"name"`
}

func validDateShift(date, shift string) error {
	if !models.ValidDate(date) {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	if !models.ValidShift(shift) {
		return fmt.Errorf("invalid shift %q", shift)
	}
	return nil
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := validDateShift(req.Date, req.Shift); err != nil {
		badRequest(c, err.Error())
		return
	}

	t := now()
	r := models.Report{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Date:      req.Date,
		Shift:     req.Shift,
		Content:   req.Content,
		CreatedAt: t,
		UpdatedAt: t,
	}
	if err := h.Store.Reports.Insert(c.Request.Context(), r.ID, &r); err != nil {
		h.storeError(c, err, "Report")
		return
	}

	h.publish(entityReport, actionCreated, r.ID)
	c.JSON(http.StatusCreated, r)
}

// GenerateReport builds the report text for a date and shift from the
// active teams and the orders scheduled that day, and stores it.
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := validDateShift(req.Date, req.Shift); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	teams, err := h.Store.Teams.Find(ctx, store.Filter{"isActive": true})
	if err != nil {
		h.storeError(c, err, "Team")
		return
	}
	techs, err := h.Store.Technicians.Find(ctx, nil)
	if err != nil {
		h.storeError(c, err, "Technician")
		return
	}
	orders, err := h.Store.ServiceOrders.Find(ctx, store.Filter{"scheduledDate": req.Date})
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}

	content, err := report.Build(report.Input{
		Date:        req.Date,
		Shift:       req.Shift,
		Teams:       teams,
		Technicians: techs,
		Orders:      orders,
	})
	var conflict *report.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "conflicts": conflict.Conflicts})
		return
	}
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		day, _ := time.Parse(models.DateLayout, req.Date)
		name = fmt.Sprintf("Relatório %s - %s", day.Format("02/01/2006"), req.Shift)
	}

	t := now()
	r := models.Report{
		ID:        uuid.New().String(),
		Name:      name,
		Date:      req.Date,
		Shift:     req.Shift,
		Content:   content,
		CreatedAt: t,
		UpdatedAt: t,
	}
	if err := h.Store.Reports.Insert(ctx, r.ID, &r); err != nil {
		h.storeError(c, err, "Report")
		return
	}

	h.Log.Info("report generated",
		zap.String("report", r.ID),
		zap.String("date", r.Date),
		zap.String("shift", r.Shift),
		zap.Int("teams", len(teams)),
	)
	h.publish(entityReport, actionCreated, r.ID)
	c.JSON(http.StatusCreated, r)
}

// GetAllReports lists reports, newest date first, optionally by date/shift.
func (h *ReportHandler) GetAllReports(c *gin.Context) {
	filter := store.Filter{}
	if date := c.Query("date"); date != "" {
		filter["date"] = date
	}
	if shift := c.Query("shift"); shift != "" {
		filter["shift"] = shift
	}

	reports, err := h.Store.Reports.Find(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "Report")
		return
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Date != reports[j].Date {
			return reports[i].Date > reports[j].Date
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	c.JSON(http.StatusOK, reports)
}

func (h *ReportHandler) GetReportByID(c *gin.Context) {
	r, err := h.Store.Reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Report")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := validDateShift(req.Date, req.Shift); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	r, err := h.Store.Reports.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Report")
		return
	}
	r.Name = strings.TrimSpace(req.Name)
	r.Date = req.Date
	r.Shift = req.Shift
	r.Content = req.Content
	r.UpdatedAt = now()

	if err := h.Store.Reports.Replace(ctx, r.ID, r); err != nil {
		h.storeError(c, err, "Report")
		return
	}

	h.publish(entityReport, actionUpdated, r.ID)
	c.JSON(http.StatusOK, r)
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.Reports.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, err, "Report")
		return
	}

	h.publish(entityReport, actionDeleted, id)
	c.Status(http.StatusNoContent)
}

// ExportReport uploads the report content as a text file.
func (h *ReportHandler) ExportReport(c *gin.Context) {
	if h.Exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report export is not configured"})
		return
	}

	ctx := c.Request.Context()
	r, err := h.Store.Reports.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Report")
		return
	}

	name := fmt.Sprintf("%s/%s.txt", r.Date, r.ID)
	url, err := h.Exporter.Upload(ctx, name, "text/plain; charset=utf-8", strings.NewReader(r.Content))
	if err != nil {
		h.Log.Error("report export failed", zap.String("report", r.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
