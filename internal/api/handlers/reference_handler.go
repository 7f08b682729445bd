// internal/api/handlers/reference_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"field-service-api/internal/models"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NameRequest struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

type NeighborhoodRequest struct {
	Name     string `json:"name" binding:"required"`
	CityID   string `json:"cityId" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

func bindName(c *gin.Context) (*NameRequest, bool) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		badRequest(c, "name is required")
		return nil, false
	}
	return &req, true
}

// --- Cities ---

type CityHandler struct {
	Base
}

func (h *CityHandler) CreateCity(c *gin.Context) {
	req, ok := bindName(c)
	if !ok {
		return
	}
	city := models.City{ID: uuid.New().String(), Name: req.Name, IsActive: isActive(req.IsActive)}
	if err := h.Store.Cities.Insert(c.Request.Context(), city.ID, &city); err != nil {
		h.storeError(c, err, "City")
		return
	}
	h.publish(entityCity, actionCreated, city.ID)
	c.JSON(http.StatusCreated, city)
}

func (h *CityHandler) GetAllCities(c *gin.Context) {
	filter := store.Filter{}
	if err := activeFilter(c, filter); err != nil {
		badRequest(c, err.Error())
		return
	}
	cities, err := h.Store.Cities.Find(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "City")
		return
	}
	c.JSON(http.StatusOK, cities)
}

func (h *CityHandler) GetCityByID(c *gin.Context) {
	city, err := h.Store.Cities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "City")
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *CityHandler) UpdateCity(c *gin.Context) {
	req, ok := bindName(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	city, err := h.Store.Cities.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "City")
		return
	}
	city.Name = req.Name
	if req.IsActive != nil {
		city.IsActive = *req.IsActive
	}
	if err := h.Store.Cities.Replace(ctx, city.ID, city); err != nil {
		h.storeError(c, err, "City")
		return
	}
	h.publish(entityCity, actionUpdated, city.ID)
	c.JSON(http.StatusOK, city)
}

func (h *CityHandler) DeleteCity(c *gin.Context) {
	ctx := c.Request.Context()
	city, err := h.Store.Cities.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "City")
		return
	}
	city.IsActive = false
	if err := h.Store.Cities.Replace(ctx, city.ID, city); err != nil {
		h.storeError(c, err, "City")
		return
	}
	h.publish(entityCity, actionDeleted, city.ID)
	c.Status(http.StatusNoContent)
}

// GetCityNeighborhoods lists the neighborhoods of a city.
func (h *CityHandler) GetCityNeighborhoods(c *gin.Context) {
	ctx := c.Request.Context()
	city, err := h.Store.Cities.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "City")
		return
	}
	filter := store.Filter{"cityId": city.ID}
	if err := activeFilter(c, filter); err != nil {
		badRequest(c, err.Error())
		return
	}
	neighborhoods, err := h.Store.Neighborhoods.Find(ctx, filter)
	if err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	c.JSON(http.StatusOK, neighborhoods)
}

// --- Neighborhoods ---

type NeighborhoodHandler struct {
	Base
}

var errUnknownCity = errors.New("city not found or inactive")

func (h *NeighborhoodHandler) checkCity(ctx context.Context, id string) error {
	city, err := h.Store.Cities.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !city.IsActive) {
		return errUnknownCity
	}
	return err
}

func (h *NeighborhoodHandler) bind(c *gin.Context) (*NeighborhoodRequest, bool) {
	var req NeighborhoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		badRequest(c, "name is required")
		return nil, false
	}
	if err := h.checkCity(c.Request.Context(), req.CityID); err != nil {
		if errors.Is(err, errUnknownCity) {
			badRequest(c, err.Error())
		} else {
			h.storeError(c, err, "City")
		}
		return nil, false
	}
	return &req, true
}

func (h *NeighborhoodHandler) CreateNeighborhood(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	n := models.Neighborhood{
		ID:       uuid.New().String(),
		Name:     req.Name,
		CityID:   req.CityID,
		IsActive: isActive(req.IsActive),
	}
	if err := h.Store.Neighborhoods.Insert(c.Request.Context(), n.ID, &n); err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	h.publish(entityNeighborhood, actionCreated, n.ID)
	c.JSON(http.StatusCreated, n)
}

func (h *NeighborhoodHandler) GetAllNeighborhoods(c *gin.Context) {
	filter := store.Filter{}
	if err := activeFilter(c, filter); err != nil {
		badRequest(c, err.Error())
		return
	}
	if cityID := c.Query("cityId"); cityID != "" {
		filter["cityId"] = cityID
	}
	neighborhoods, err := h.Store.Neighborhoods.Find(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	c.JSON(http.StatusOK, neighborhoods)
}

func (h *NeighborhoodHandler) GetNeighborhoodByID(c *gin.Context) {
	n, err := h.Store.Neighborhoods.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NeighborhoodHandler) UpdateNeighborhood(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	n, err := h.Store.Neighborhoods.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	n.Name = req.Name
	n.CityID = req.CityID
	if req.IsActive != nil {
		n.IsActive = *req.IsActive
	}
	if err := h.Store.Neighborhoods.Replace(ctx, n.ID, n); err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	h.publish(entityNeighborhood, actionUpdated, n.ID)
	c.JSON(http.StatusOK, n)
}

func (h *NeighborhoodHandler) DeleteNeighborhood(c *gin.Context) {
	ctx := c.Request.Context()
	n, err := h.Store.Neighborhoods.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	n.IsActive = false
	if err := h.Store.Neighborhoods.Replace(ctx, n.ID, n); err != nil {
		h.storeError(c, err, "Neighborhood")
		return
	}
	h.publish(entityNeighborhood, actionDeleted, n.ID)
	c.Status(http.StatusNoContent)
}

// --- Service types ---

type ServiceTypeHandler struct {
	Base
}

func (h *ServiceTypeHandler) CreateServiceType(c *gin.Context) {
	req, ok := bindName(c)
	if !ok {
		return
	}
	st := models.ServiceType{ID: uuid.New().String(), Name: req.Name, IsActive: isActive(req.IsActive)}
	if err := h.Store.ServiceTypes.Insert(c.Request.Context(), st.ID, &st); err != nil {
		h.storeError(c, err, "Service type")
		return
	}
	h.publish(entityServiceType, actionCreated, st.ID)
	c.JSON(http.StatusCreated, st)
}

func (h *ServiceTypeHandler) GetAllServiceTypes(c *gin.Context) {
	filter := store.Filter{}
	if err := activeFilter(c, filter); err != nil {
		badRequest(c, err.Error())
		return
	}
	types, err := h.Store.ServiceTypes.Find(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "Service type")
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *ServiceTypeHandler) GetServiceTypeByID(c *gin.Context) {
	st, err := h.Store.ServiceTypes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Service type")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *ServiceTypeHandler) UpdateServiceType(c *gin.Context) {
	req, ok := bindName(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	st, err := h.Store.ServiceTypes.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Service type")
		return
	}
	st.Name = req.Name
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := h.Store.ServiceTypes.Replace(ctx, st.ID, st); err != nil {
		h.storeError(c, err, "Service type")
		return
	}
	h.publish(entityServiceType, actionUpdated, st.ID)
	c.JSON(http.StatusOK, st)
}

func (h *ServiceTypeHandler) DeleteServiceType(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.Store.ServiceTypes.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Service type")
		return
	}
	st.IsActive = false
	if err := h.Store.ServiceTypes.Replace(ctx, st.ID, st); err != nil {
		h.storeError(c, err, "Service type")
		return
	}
	h.publish(entityServiceType, actionDeleted, st.ID)
	c.Status(http.StatusNoContent)
}
