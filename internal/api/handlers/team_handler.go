// internal/api/handlers/team_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"field-service-api/internal/models"
	"field-service-api/internal/report"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TeamHandler struct {
	Base
}

type TeamRequest struct {
	Name          string   `json:"name" binding:"required"`
	TechnicianIDs []string `json:"technicianIds"`
	BoxNumber     string   `json:"boxNumber"`
	Notes         string   `json:"notes"`
	IsActive      *bool    `json:"isActive"`
}

// teamConflict is a technician already serving in another active team.
type teamConflict struct {
	TechnicianID string `json:"technicianId"`
	Technician   string `json:"technician"`
	TeamID       string `json:"teamId"`
	Team         string `json:"team"`
}

// errInvalidMembers marks member lists that fail validation with 400.
var errInvalidMembers = errors.New("invalid technician list")

// checkMembers validates the technicians of team selfID (empty on create).
// It returns conflicts with other active teams, or errInvalidMembers.
func (h *TeamHandler) checkMembers(ctx context.Context, selfID string, ids []string) ([]teamConflict, error) {
	seen := make(map[string]bool, len(ids))
	var conflicts []teamConflict
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: technician %s listed twice", errInvalidMembers, id)
		}
		seen[id] = true

		tech, err := h.Store.Technicians.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !tech.IsActive) {
			return nil, fmt.Errorf("%w: technician %s not found or inactive", errInvalidMembers, id)
		}
		if err != nil {
			return nil, err
		}

		teams, err := h.Store.Teams.Find(ctx, store.Filter{"isActive": true, "technicianIds": id})
		if err != nil {
			return nil, err
		}
		for _, other := range teams {
			if other.ID == selfID {
				continue
			}
			conflicts = append(conflicts, teamConflict{
				TechnicianID: id,
				Technician:   tech.Name,
				TeamID:       other.ID,
				Team:         other.Name,
			})
		}
	}
	return conflicts, nil
}

// resolveBox returns the box number for team selfID, assigning the next free
// one when box is empty. ok is false when another active team holds box.
func (h *TeamHandler) resolveBox(ctx context.Context, selfID, box string) (string, bool, error) {
	teams, err := h.Store.Teams.Find(ctx, store.Filter{"isActive": true})
	if err != nil {
		return "", false, err
	}
	others := teams[:0]
	for _, t := range teams {
		if t.ID != selfID {
			others = append(others, t)
		}
	}

	if box == "" {
		return report.NextBoxNumber(others), true, nil
	}
	for _, t := range others {
		if t.BoxNumber == box {
			return box, false, nil
		}
	}
	return box, true, nil
}

// validate fills team's box number and checks its members. It writes the
// error response itself and returns false when the team must not be saved.
func (h *TeamHandler) validate(c *gin.Context, team *models.Team) bool {
	if !team.IsActive {
		return true
	}
	ctx := c.Request.Context()

	conflicts, err := h.checkMembers(ctx, team.ID, team.TechnicianIDs)
	if errors.Is(err, errInvalidMembers) {
		badRequest(c, err.Error())
		return false
	}
	if err != nil {
		h.storeError(c, err, "Team")
		return false
	}
	if len(conflicts) > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Technicians already assigned to another active team",
			"conflicts": conflicts,
		})
		return false
	}

	box, ok, err := h.resolveBox(ctx, team.ID, strings.TrimSpace(team.BoxNumber))
	if err != nil {
		h.storeError(c, err, "Team")
		return false
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Box number %s is already used by another active team", box)})
		return false
	}
	team.BoxNumber = box
	return true
}

// CreateTeam creates a team and assigns the next free box number when none
// is given.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var req TeamRequest
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
	team := models.Team{
		ID:            uuid.New().String(),
		Name:          name,
		TechnicianIDs: orEmpty(req.TechnicianIDs),
		BoxNumber:     req.BoxNumber,
		Notes:         req.Notes,
		IsActive:      isActive(req.IsActive),
		CreatedAt:     t,
		UpdatedAt:     t,
	}
	if !h.validate(c, &team) {
		return
	}

	if err := h.Store.Teams.Insert(c.Request.Context(), team.ID, &team); err != nil {
		h.storeError(c, err, "Team")
		return
	}

	h.publish(entityTeam, actionCreated, team.ID)
	c.JSON(http.StatusCreated, team)
}

// GetAllTeams lists teams ordered by box number.
func (h *TeamHandler) GetAllTeams(c *gin.Context) {
	filter := store.Filter{}
	if err := activeFilter(c, filter); err != nil {
		badRequest(c, err.Error())
		return
	}

	teams, err := h.Store.Teams.Find(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "Team")
		return
	}
	c.JSON(http.StatusOK, report.SortTeams(teams))
}

func (h *TeamHandler) GetTeamByID(c *gin.Context) {
	team, err := h.Store.Teams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Team")
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	var req TeamRequest
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
	team, err := h.Store.Teams.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Team")
		return
	}

	team.Name = name
	team.TechnicianIDs = orEmpty(req.TechnicianIDs)
	team.Notes = req.Notes
	if req.BoxNumber != "" {
		team.BoxNumber = req.BoxNumber
	}
	if req.IsActive != nil {
		team.IsActive = *req.IsActive
	}
	team.UpdatedAt = now()
	if !h.validate(c, team) {
		return
	}

	if err := h.Store.Teams.Replace(ctx, team.ID, team); err != nil {
		h.storeError(c, err, "Team")
		return
	}

	h.publish(entityTeam, actionUpdated, team.ID)
	c.JSON(http.StatusOK, team)
}

// DeleteTeam soft-deletes a team. Its service orders keep their teamId.
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	ctx := c.Request.Context()
	team, err := h.Store.Teams.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Team")
		return
	}

	team.IsActive = false
	team.UpdatedAt = now()
	if err := h.Store.Teams.Replace(ctx, team.ID, team); err != nil {
		h.storeError(c, err, "Team")
		return
	}

	h.publish(entityTeam, actionDeleted, team.ID)
	c.Status(http.StatusNoContent)
}

// GetTeamServiceOrders lists the service orders assigned to a team.
func (h *TeamHandler) GetTeamServiceOrders(c *gin.Context) {
	ctx := c.Request.Context()
	team, err := h.Store.Teams.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Team")
		return
	}

	orders, err := h.Store.ServiceOrders.Find(ctx, store.Filter{"teamId": team.ID})
	if err != nil {
		h.storeError(c, err, "Service order")
		return
	}
	sortOrders(orders)
	c.JSON(http.StatusOK, orders)
}
