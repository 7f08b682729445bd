// internal/api/handlers/common.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"field-service-api/internal/socket"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Entity names used in change events.
const (
	entityTechnician   = "technician"
	entityTeam         = "team"
	entityServiceOrder = "service-order"
	entityReport       = "report"
	entityCity         = "city"
	entityNeighborhood = "neighborhood"
	entityServiceType  = "service-type"
)

const (
	actionCreated = "created"
	actionUpdated = "updated"
	actionDeleted = "deleted"
)

// Base carries what every handler needs.
type Base struct {
	Store  *store.Stores
	Events socket.Publisher
	Log    *zap.Logger
}

func (h *Base) publish(entity, action, id string) {
	if h.Events != nil {
		h.Events.Publish(entity, action, id)
	}
}

// storeError answers a repository error: 404 for a missing document, 409 for
// a uniqueness conflict and 500 for anything else.
func (h *Base) storeError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	default:
		h.Log.Error("storage error",
			zap.String("entity", what),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// activeFilter adds isActive to f when the "active" query parameter is set.
func activeFilter(c *gin.Context, f store.Filter) error {
	raw := c.Query("active")
	if raw == "" {
		return nil
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid active value %q", raw)
	}
	f["isActive"] = active
	return nil
}

// isActive resolves an optional isActive field, defaulting to true.
func isActive(v *bool) bool {
	return v == nil || *v
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// now is truncated to the millisecond precision every backend stores, so a
// create response matches a later read.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
