// internal/api/handlers/technician_handler.go
package handlers

import (
	"net/http"
	"strings"

	"field-service-api/internal/models"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TechnicianHandler struct {
	Base
}

type TechnicianRequest struct {
	Name          string   `json:"name" binding:"required"`
	Cities        []string `json:"cities"`
	Neighborhoods []string `json:"neighborhoods"`
	IsActive      *bool    `json:"isActive"`
}

// CreateTechnician registers a new technician.
func (h *TechnicianHandler) CreateTechnician(c *gin.Context) {
	var req TechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		badRequest(c, "name is required")
		return
	}

	t := now()
	tech := models.Technician{
		ID:            uuid.New().String(),
		Name:          name,
		Cities:        orEmpty(req.Cities),
		Neighborhoods: orEmpty(req.Neighborhoods),
		IsActive:      isActive(req.IsActive),
		CreatedAt:     t,
		UpdatedAt:     t,
	}
	if err := h.Store.Technicians.Insert(c.Request.Context(), tech.ID, &tech); err != nil {
		h.storeError(c, err, "Technician")
		return
	}

	h.publish(entityTechnician, actionCreated, tech.ID)
	c.JSON(http.StatusCreated, tech)
}

// GetAllTechnicians lists technicians, optionally filtered by active flag,
// city or neighborhood.
func (h *TechnicianHandler) GetAllTechnicians(c *gin.Context) {
	filter := store.Filter{}
	if err := activeFilter(c, filter); err != nil {
		badRequest(c, err.Error())
		return
	}
	if city := c.Query("city"); city != "" {
		filter["cities"] = city
	}
	if neighborhood := c.Query("neighborhood"); neighborhood != "" {
		filter["neighborhoods"] = neighborhood
	}

	techs, err := h.Store.Technicians.Find(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "Technician")
		return
	}
	c.JSON(http.StatusOK, techs)
}

func (h *TechnicianHandler) GetTechnicianByID(c *gin.Context) {
	tech, err := h.Store.Technicians.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Technician")
		return
	}
	c.JSON(http.StatusOK, tech)
}

func (h *TechnicianHandler) UpdateTechnician(c *gin.Context) {
	var req TechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		badRequest(c, "name is required")
		return
	}

	ctx := c.Request.Context()
	tech, err := h.Store.Technicians.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Technician")
		return
	}

	tech.Name = name
	tech.Cities = orEmpty(req.Cities)
	tech.Neighborhoods = orEmpty(req.Neighborhoods)
	if req.IsActive != nil {
		tech.IsActive = *req.IsActive
	}
	tech.UpdatedAt = now()

	if err := h.Store.Technicians.Replace(ctx, tech.ID, tech); err != nil {
		h.storeError(c, err, "Technician")
		return
	}

	h.publish(entityTechnician, actionUpdated, tech.ID)
	c.JSON(http.StatusOK, tech)
}

// DeleteTechnician soft-deletes a technician. Team memberships are left as is.
func (h *TechnicianHandler) DeleteTechnician(c *gin.Context) {
	ctx := c.Request.Context()
	tech, err := h.Store.Technicians.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Technician")
		return
	}

	tech.IsActive = false
	tech.UpdatedAt = now()
	if err := h.Store.Technicians.Replace(ctx, tech.ID, tech); err != nil {
		h.storeError(c, err, "Technician")
		return
	}

	h.publish(entityTechnician, actionDeleted, tech.ID)
	c.Status(http.StatusNoContent)
}
