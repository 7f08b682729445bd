package handlers_test

import (
	"net/http"
	"testing"

	"field-service-api/internal/api/handlers"
	"field-service-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(orders []models.ServiceOrder) []string {
	out := []string{}
	for _, o := range orders {
		out = append(out, o.Code)
	}
	return out
}

func TestServiceOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Instalação")

	order := create[models.ServiceOrder](h, "/api/service-orders", obj{
		"code":          "OS-100",
		"type":          "Instalação",
		"scheduledDate": "2026-10-14",
		"scheduledTime": "09:30",
		"customerName":  "Maria",
	})
	assert.Equal(t, models.StatusPending, order.Status)
	h.expectEvent("service-order", "created", order.ID)

	w := h.do(http.MethodGet, "/api/service-orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.CreatedAt, decode[models.ServiceOrder](t, w).CreatedAt)

	w = h.do(http.MethodPut, "/api/service-orders/"+order.ID, obj{
		"code":   "OS-100",
		"type":   "Instalação",
		"status": models.StatusStickered,
		"alert":  "portão azul",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.ServiceOrder](t, w)
	assert.Equal(t, models.StatusStickered, updated.Status)
	assert.Equal(t, "portão azul", updated.Alert)
	assert.Empty(t, updated.ScheduledDate)

	w = h.do(http.MethodPatch, "/api/service-orders/"+order.ID+"/status", obj{"status": models.StatusCompleted})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCompleted, decode[models.ServiceOrder](t, w).Status)

	w = h.do(http.MethodPatch, "/api/service-orders/"+order.ID+"/status", obj{"status": "Feito"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/service-orders/"+order.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/service-orders/"+order.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/service-orders/"+order.ID, nil).Code)
}

func TestCreateServiceOrderValidation(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "1", "type": "Reparo"})

	tests := []struct {
		name string
		body obj
		code int
	}{
		{"duplicate code", obj{"code": "1", "type": "Reparo"}, http.StatusConflict},
		{"missing code", obj{"type": "Reparo"}, http.StatusBadRequest},
		{"unknown type", obj{"code": "2", "type": "Pintura"}, http.StatusBadRequest},
		{"bad status", obj{"code": "2", "type": "Reparo", "status": "Aberto"}, http.StatusBadRequest},
		{"bad date", obj{"code": "2", "type": "Reparo", "scheduledDate": "14/10/2026"}, http.StatusBadRequest},
		{"bad time", obj{"code": "2", "type": "Reparo", "scheduledTime": "9h"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/api/service-orders", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w := h.do(http.MethodPost, "/api/service-orders", obj{"code": "1", "type": "Reparo"})
	assert.Equal(t, "Service order with this code already exists", errorOf(t, w))
}

func TestServiceOrderInactiveType(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	require.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/service-types/st-Reparo", nil).Code)

	w := h.do(http.MethodPost, "/api/service-orders", obj{"code": "1", "type": "Reparo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchServiceOrder(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	order := create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "AB-77", "type": "Reparo"})

	for _, code := range []string{"AB-77", "ab-77", "%20Ab-77%20"} {
		w := h.do(http.MethodGet, "/api/service-orders/search?code="+code, nil)
		require.Equal(t, http.StatusOK, w.Code, code)
		assert.Equal(t, order.ID, decode[models.ServiceOrder](t, w).ID)
	}

	w := h.do(http.MethodGet, "/api/service-orders/search?code=AB-7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/service-orders/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListServiceOrdersFilters(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "tarde", "type": "Reparo", "scheduledDate": "2026-10-14", "scheduledTime": "14:00"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "manha", "type": "Reparo", "scheduledDate": "2026-10-14", "scheduledTime": "08:30", "teamId": "t1"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "sem-hora", "type": "Reparo", "scheduledDate": "2026-10-14", "reminder": true})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "outro-dia", "type": "Reparo", "scheduledDate": "2026-10-15", "status": models.StatusCancelled, "technicianId": "x"})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"manha", "tarde", "sem-hora", "outro-dia"}},
		{"?date=2026-10-14", []string{"manha", "tarde", "sem-hora"}},
		{"?date=2026-10-14&shift=Manh%C3%A3", []string{"manha", "sem-hora"}},
		{"?shift=Tarde", []string{"tarde", "sem-hora", "outro-dia"}},
		{"?status=Cancelado", []string{"outro-dia"}},
		{"?teamId=t1", []string{"manha"}},
		{"?technicianId=x", []string{"outro-dia"}},
		{"?reminder=true", []string{"sem-hora"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := h.do(http.MethodGet, "/api/service-orders"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, codes(decode[[]models.ServiceOrder](t, w)))
		})
	}

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/service-orders?shift=Noite", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/service-orders?reminder=sim", nil).Code)
}

func TestServiceOrderAlerts(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "1", "type": "Reparo", "alert": "cão bravo"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "2", "type": "Reparo", "alert": "feito", "status": models.StatusCompleted})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "3", "type": "Reparo", "alert": "  "})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "4", "type": "Reparo", "alert": "ligar antes", "status": models.StatusRescheduled})

	w := h.do(http.MethodGet, "/api/service-orders/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"1", "4"}, codes(decode[[]models.ServiceOrder](t, w)))
}

func TestServiceOrderCalendar(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "b", "type": "Reparo", "scheduledDate": "2026-10-15", "scheduledTime": "10:00"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "a", "type": "Reparo", "scheduledDate": "2026-10-14"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "c", "type": "Reparo", "scheduledDate": "2026-10-15", "scheduledTime": "08:00"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "late", "type": "Reparo", "scheduledDate": "2026-11-01"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "none", "type": "Reparo"})

	w := h.do(http.MethodGet, "/api/service-orders/calendar?from=2026-10-14&to=2026-10-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	days := decode[[]handlers.CalendarDay](t, w)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-10-14", days[0].Date)
	assert.Equal(t, []string{"a"}, codes(days[0].ServiceOrders))
	assert.Equal(t, "2026-10-15", days[1].Date)
	assert.Equal(t, []string{"c", "b"}, codes(days[1].ServiceOrders))

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/service-orders/calendar?from=2026-10-14", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/service-orders/calendar?from=2026-10-20&to=2026-10-14", nil).Code)
}

func TestReallocate(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	ana := newTechnician(h, "Ana")
	bruno := newTechnician(h, "Bruno")
	north := create[models.Team](h, "/api/teams", obj{"name": "Norte", "technicianIds": []string{ana.ID}})
	south := create[models.Team](h, "/api/teams", obj{"name": "Sul", "technicianIds": []string{bruno.ID}})

	pending := create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "1", "type": "Reparo", "teamId": north.ID, "technicianId": ana.ID, "scheduledDate": "2026-10-14"})
	create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "2", "type": "Reparo", "teamId": north.ID, "status": models.StatusRescheduled})
	done := create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "3", "type": "Reparo", "teamId": north.ID, "status": models.StatusCompleted})

	w := h.do(http.MethodPost, "/api/service-orders/reallocate", obj{"fromTeamId": north.ID, "teamId": south.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Updated       int                   `json:"updated"`
		ServiceOrders []models.ServiceOrder `json:"serviceOrders"`
	}](t, w)
	assert.Equal(t, 2, res.Updated)
	assert.ElementsMatch(t, []string{"1", "2"}, codes(res.ServiceOrders))
	for _, o := range res.ServiceOrders {
		assert.Equal(t, south.ID, o.TeamID)
		// Ana is not in Sul
		assert.Empty(t, o.TechnicianID)
	}

	left, err := h.stores.ServiceOrders.Get(t.Context(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, north.ID, left.TeamID)

	w = h.do(http.MethodPost, "/api/service-orders/reallocate", obj{
		"orderIds":      []string{pending.ID},
		"technicianId":  bruno.ID,
		"teamId":        south.ID,
		"scheduledDate": "2026-10-16",
		"scheduledTime": "13:30",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved, err := h.stores.ServiceOrders.Get(t.Context(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, bruno.ID, moved.TechnicianID)
	assert.Equal(t, "2026-10-16", moved.ScheduledDate)
	assert.Equal(t, "13:30", moved.ScheduledTime)
	assert.Equal(t, models.StatusRescheduled, moved.Status)
}

func TestReallocateValidation(t *testing.T) {
	h := newHarness(t)
	seedServiceType(t, h, "Reparo")
	ana := newTechnician(h, "Ana")
	north := create[models.Team](h, "/api/teams", obj{"name": "Norte"})
	closed := create[models.Team](h, "/api/teams", obj{"name": "Fechada", "isActive": false})
	order := create[models.ServiceOrder](h, "/api/service-orders", obj{"code": "1", "type": "Reparo"})

	tests := []struct {
		name string
		body obj
		code int
	}{
		{"no source", obj{"teamId": north.ID}, http.StatusBadRequest},
		{"both sources", obj{"orderIds": []string{order.ID}, "fromTeamId": north.ID, "teamId": north.ID}, http.StatusBadRequest},
		{"no target", obj{"orderIds": []string{order.ID}}, http.StatusBadRequest},
		{"inactive team", obj{"orderIds": []string{order.ID}, "teamId": closed.ID}, http.StatusBadRequest},
		{"unknown technician", obj{"orderIds": []string{order.ID}, "technicianId": "ghost"}, http.StatusBadRequest},
		{"not a member", obj{"orderIds": []string{order.ID}, "teamId": north.ID, "technicianId": ana.ID}, http.StatusBadRequest},
		{"bad date", obj{"orderIds": []string{order.ID}, "scheduledDate": "amanhã"}, http.StatusBadRequest},
		{"unknown order", obj{"orderIds": []string{"ghost"}, "teamId": north.ID}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/api/service-orders/reallocate", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}
