// internal/api/handlers/service_order_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"field-service-api/internal/models"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ServiceOrderHandler struct {
	Base
}

type ServiceOrderRequest struct {
	Code               string `json:"code" binding:"required"`
	Type               string `json:"type" binding:"required"`
	Status             string `json:"status"`
	TeamID             string `json:"teamId"`
	TechnicianID       string `json:"technicianId"`
	Alert              string `json:"alert"`
	ScheduledDate      string `json:"scheduledDate"`
	ScheduledTime      string `json:"scheduledTime"`
	CustomerName       string `json:"customerName"`
	CustomerPhone      string `json:"customerPhone"`
	Address            string `json:"address"`
	City               string `json:"city"`
	Neighborhood       string `json:"neighborhood"`
	Reminder           bool   `json:"reminder"`
	CreatedViaCalendar bool   `json:"createdViaCalendar"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReallocateRequest moves service orders to another team, technician or date.
// Orders are picked by OrderIDs or, when FromTeamID is set, every open
// Pendente or Reagendado order of that team.
type ReallocateRequest struct {
	OrderIDs      []string `json:"orderIds"`
	FromTeamID    string   `json:"fromTeamId"`
	TeamID        string   `json:"teamId"`
	TechnicianID  string   `json:"technicianId"`
	ScheduledDate string   `json:"scheduledDate"`
	ScheduledTime string   `json:"scheduledTime"`
}

type CalendarDay struct {
	Date          string                `json:"date"`
	ServiceOrders []models.ServiceOrder `json:"serviceOrders"`
}

var errUnknownServiceType = errors.New("unknown service type")

// normalize trims and defaults the request and checks enum and date fields.
func (r *ServiceOrderRequest) normalize() error {
	r.Code = strings.TrimSpace(r.Code)
	r.Type = strings.TrimSpace(r.Type)
	if r.Code == "" || r.Type == "" {
		return errors.New("code and type are required")
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if !models.ValidStatus(r.Status) {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.ScheduledDate != "" && !models.ValidDate(r.ScheduledDate) {
		return fmt.Errorf("invalid scheduledDate %q, expected YYYY-MM-DD", r.ScheduledDate)
	}
	if r.ScheduledTime != "" && !models.ValidTime(r.ScheduledTime) {
		return fmt.Errorf("invalid scheduledTime %q, expected HH:MM", r.ScheduledTime)
	}
	return nil
}

func (r *ServiceOrderRequest) apply(o *models.ServiceOrder) {
	o.Code = r.Code
	o.Type = r.Type
	o.Status = r.Status
	o.TeamID = r.TeamID
	o.TechnicianID = r.TechnicianID
	o.Alert = r.Alert
	o.ScheduledDate = r.ScheduledDate
	o.ScheduledTime = r.ScheduledTime
	o.CustomerName = r.CustomerName
	o.CustomerPhone = r.CustomerPhone
	o.Address = r.Address
	o.City = r.City
	o.Neighborhood = r.Neighborhood
	o.Reminder = r.Reminder
	o.CreatedViaCalendar = r.CreatedViaCalendar
}

func (h *ServiceOrderHandler) checkType(ctx context.Context, name string) error {
	n, err := h.Store.ServiceTypes.Count(ctx, store.Filter{"name": name, "isActive": true})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w %q", errUnknownServiceType, name)
	}
	return nil
}

// bindOrder binds, normalizes and type-checks the request body.
func (h *ServiceOrderHandler) bindOrder(c *gin.Context) (*ServiceOrderRequest, bool) {
	var req ServiceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if err := req.normalize(); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if err := h.checkType(c.Request.Context(), req.Type); err != nil {
		if errors.Is(err, errUnknownServiceType) {
			badRequest(c, err.Error())
		} else {
			h.storeError(c, err, "Service type")
		}
		return nil, false
	}
	return &req, true
}

// CreateServiceOrder creates an order; codes are unique.
func (h *ServiceOrderHandler) CreateServiceOrder(c *gin.Context) {
	req, ok := h.bindOrder(c)
	if !ok {
		return
	}

	t := now()
	order := models.ServiceOrder{ID: uuid.New().String(), CreatedAt: t, UpdatedAt: t}
	req.apply(&order)

	if err := h.Store.ServiceOrders.Insert(c.Request.Context(), order.ID, &order); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Service order with this code already exists"})
			return
		}
		h.storeError(c, err, "Service order")
		return
	}

	h.publish(entityServiceOrder, actionCreated, order.ID)
	c.JSON(http.StatusCreated, order)
}

// GetAllServiceOrders lists orders filtered by status, teamId, technicianId,
// date, shift and reminder.
func (h *ServiceOrderHandler) GetAllServiceOrders(c *gin.Context) {
	filter := store.Filter{}
	for param, field := range map[string]string{
		"status":       "status",
		"teamId":       "teamId",
		"technicianId": "technicianId",
		"date":         "scheduledDate",
	} {
		if v := c.Query(param); v != "" {
			filter[field] = v
		}
	}
	if raw := c.Query("reminder"); raw != "" {
		reminder, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, fmt.Sprintf("invalid reminder value %q", raw))
			return
		}
		filter["reminder"] = reminder
	}
	shift := c.Query("shift")
	if shift != "" && !models.ValidShift(shift) {
		badRequest(c, fmt.Sprintf("invalid shift %q", shift))
		return
	}

	orders, err := h.Store.ServiceOrders.Find(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	if shift != "" {
		kept := orders[:0]
		for _, o := range orders {
			if o.InShift(shift) {
				kept = append(kept, o)
			}
		}
		orders = kept
	}
	sortOrders(orders)
	c.JSON(http.StatusOK, orders)
}

func (h *ServiceOrderHandler) GetServiceOrderByID(c *gin.Context) {
	order, err := h.Store.ServiceOrders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// SearchServiceOrder finds an order by code, ignoring case.
func (h *ServiceOrderHandler) SearchServiceOrder(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		badRequest(c, "code is required")
		return
	}

	ctx := c.Request.Context()
	orders, err := h.Store.ServiceOrders.Find(ctx, store.Filter{"code": code})
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	if len(orders) == 0 {
		all, err := h.Store.ServiceOrders.Find(ctx, nil)
		if err != nil {
			h.storeError(c, err, "Service order")
			return
		}
		for _, o := range all {
			if strings.EqualFold(o.Code, code) {
				orders = append(orders, o)
				break
			}
		}
	}
	if len(orders) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service order not found"})
		return
	}
	c.JSON(http.StatusOK, orders[0])
}

func (h *ServiceOrderHandler) UpdateServiceOrder(c *gin.Context) {
	req, ok := h.bindOrder(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	order, err := h.Store.ServiceOrders.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	req.apply(order)
	order.UpdatedAt = now()

	if err := h.Store.ServiceOrders.Replace(ctx, order.ID, order); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Service order with this code already exists"})
			return
		}
		h.storeError(c, err, "Service order")
		return
	}

	h.publish(entityServiceOrder, actionUpdated, order.ID)
	c.JSON(http.StatusOK, order)
}

// UpdateServiceOrderStatus changes only the status of an order.
func (h *ServiceOrderHandler) UpdateServiceOrderStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !models.ValidStatus(req.Status) {
		badRequest(c, fmt.Sprintf("invalid status %q", req.Status))
		return
	}

	ctx := c.Request.Context()
	order, err := h.Store.ServiceOrders.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	order.Status = req.Status
	order.UpdatedAt = now()
	if err := h.Store.ServiceOrders.Replace(ctx, order.ID, order); err != nil {
		h.storeError(c, err, "Service order")
		return
	}

	h.publish(entityServiceOrder, actionUpdated, order.ID)
	c.JSON(http.StatusOK, order)
}

func (h *ServiceOrderHandler) DeleteServiceOrder(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.ServiceOrders.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, err, "Service order")
		return
	}

	h.publish(entityServiceOrder, actionDeleted, id)
	c.Status(http.StatusNoContent)
}

// GetAlerts lists open orders carrying an alert.
func (h *ServiceOrderHandler) GetAlerts(c *gin.Context) {
	orders, err := h.Store.ServiceOrders.Find(c.Request.Context(), nil)
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	alerts := []models.ServiceOrder{}
	for _, o := range orders {
		if strings.TrimSpace(o.Alert) != "" && o.Open() {
			alerts = append(alerts, o)
		}
	}
	sortOrders(alerts)
	c.JSON(http.StatusOK, alerts)
}

// GetCalendar groups scheduled orders by date between from and to, inclusive.
func (h *ServiceOrderHandler) GetCalendar(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if !models.ValidDate(from) || !models.ValidDate(to) {
		badRequest(c, "from and to are required as YYYY-MM-DD")
		return
	}
	if from > to {
		badRequest(c, "from must not be after to")
		return
	}

	orders, err := h.Store.ServiceOrders.Find(c.Request.Context(), nil)
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	sortOrders(orders)

	days := []CalendarDay{}
	for _, o := range orders {
		// YYYY-MM-DD compares lexically
		if o.ScheduledDate == "" || o.ScheduledDate < from || o.ScheduledDate > to {
			continue
		}
		if n := len(days); n > 0 && days[n-1].Date == o.ScheduledDate {
			days[n-1].ServiceOrders = append(days[n-1].ServiceOrders, o)
			continue
		}
		days = append(days, CalendarDay{Date: o.ScheduledDate, ServiceOrders: []models.ServiceOrder{o}})
	}
	c.JSON(http.StatusOK, days)
}

// Reallocate moves orders to a new team, technician or date. Orders are
// updated one by one; a failure midway leaves earlier updates in place.
func (h *ServiceOrderHandler) Reallocate(c *gin.Context) {
	var req ReallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if (len(req.OrderIDs) == 0) == (req.FromTeamID == "") {
		badRequest(c, "exactly one of orderIds or fromTeamId is required")
		return
	}
	if req.TeamID == "" && req.TechnicianID == "" && req.ScheduledDate == "" {
		badRequest(c, "teamId, technicianId or scheduledDate is required")
		return
	}
	if req.ScheduledDate != "" && !models.ValidDate(req.ScheduledDate) {
		badRequest(c, fmt.Sprintf("invalid scheduledDate %q, expected YYYY-MM-DD", req.ScheduledDate))
		return
	}
	if req.ScheduledTime != "" && !models.ValidTime(req.ScheduledTime) {
		badRequest(c, fmt.Sprintf("invalid scheduledTime %q, expected HH:MM", req.ScheduledTime))
		return
	}

	ctx := c.Request.Context()
	var team *models.Team
	if req.TeamID != "" {
		t, err := h.Store.Teams.Get(ctx, req.TeamID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !t.IsActive) {
			badRequest(c, "target team not found or inactive")
			return
		}
		if err != nil {
			h.storeError(c, err, "Team")
			return
		}
		team = t
	}
	if req.TechnicianID != "" {
		tech, err := h.Store.Technicians.Get(ctx, req.TechnicianID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !tech.IsActive) {
			badRequest(c, "target technician not found or inactive")
			return
		}
		if err != nil {
			h.storeError(c, err, "Technician")
			return
		}
		if team != nil && !team.HasTechnician(tech.ID) {
			badRequest(c, fmt.Sprintf("technician %s is not a member of team %s", tech.Name, team.Name))
			return
		}
	}

	orders, ok := h.ordersToReallocate(c, req)
	if !ok {
		return
	}

	updated := []models.ServiceOrder{}
	for i := range orders {
		o := &orders[i]
		if team != nil {
			o.TeamID = team.ID
			if req.TechnicianID == "" && o.TechnicianID != "" && !team.HasTechnician(o.TechnicianID) {
				o.TechnicianID = ""
			}
		}
		if req.TechnicianID != "" {
			o.TechnicianID = req.TechnicianID
		}
		if req.ScheduledDate != "" && req.ScheduledDate != o.ScheduledDate {
			o.ScheduledDate = req.ScheduledDate
			o.Status = models.StatusRescheduled
		}
		if req.ScheduledTime != "" {
			o.ScheduledTime = req.ScheduledTime
		}
		o.UpdatedAt = now()

		if err := h.Store.ServiceOrders.Replace(ctx, o.ID, o); err != nil {
			h.storeError(c, err, "Service order")
			return
		}
		h.publish(entityServiceOrder, actionUpdated, o.ID)
		updated = append(updated, *o)
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(updated), "serviceOrders": updated})
}

func (h *ServiceOrderHandler) ordersToReallocate(c *gin.Context, req ReallocateRequest) ([]models.ServiceOrder, bool) {
	ctx := c.Request.Context()
	if req.FromTeamID != "" {
		all, err := h.Store.ServiceOrders.Find(ctx, store.Filter{"teamId": req.FromTeamID})
		if err != nil {
			h.storeError(c, err, "Service order")
			return nil, false
		}
		var orders []models.ServiceOrder
		for _, o := range all {
			if o.Status == models.StatusPending || o.Status == models.StatusRescheduled {
				orders = append(orders, o)
			}
		}
		return orders, true
	}

	orders := make([]models.ServiceOrder, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		o, err := h.Store.ServiceOrders.Get(ctx, id)
		if err != nil {
			h.storeError(c, err, "Service order")
			return nil, false
		}
		orders = append(orders, *o)
	}
	return orders, true
}

// sortOrders orders by scheduled date and time, unscheduled last, then by
// creation.
func sortOrders(orders []models.ServiceOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.ScheduledDate != b.ScheduledDate {
			return lessScheduled(a.ScheduledDate, b.ScheduledDate)
		}
		if a.ScheduledTime != b.ScheduledTime {
			return lessScheduled(a.ScheduledTime, b.ScheduledTime)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// lessScheduled compares two date or time strings, empty sorting last.
func lessScheduled(a, b string) bool {
	if a == "" || b == "" {
		return b == "" && a != ""
	}
	return a < b
}
