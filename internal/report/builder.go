// Package report assembles the plain-text shift report sent to the field
// teams: one section per box with its technicians and service orders.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"field-service-api/internal/models"
)

const noTeamHeader = "SEM EQUIPE"

// Input is everything a report is built from. Teams should be the active
// teams; Orders may span several days, only those on Date in Shift are used.
type Input struct {
	Date        string
	Shift       string
	Teams       []models.Team
	Technicians []models.Technician
	Orders      []models.ServiceOrder
}

// ConflictError reports technicians assigned to more than one team.
type ConflictError struct {
	Conflicts []Conflict
}

type Conflict struct {
	Technician string   `json:"technician"`
	Teams      []string `json:"teams"`
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Technician, strings.Join(c.Teams, ", ")))
	}
	return "technicians assigned to more than one team: " + strings.Join(parts, "; ")
}

// Build renders the report text for in.Date and in.Shift.
func Build(in Input) (string, error) {
	day, err := time.Parse(models.DateLayout, in.Date)
	if err != nil {
		return "", fmt.Errorf("invalid report date %q: %w", in.Date, err)
	}
	window, ok := models.WindowOf(in.Shift)
	if !ok {
		return "", fmt.Errorf("invalid shift %q", in.Shift)
	}

	names := make(map[string]string, len(in.Technicians))
	for _, tech := range in.Technicians {
		names[tech.ID] = tech.Name
	}

	teams := SortTeams(in.Teams)
	if err := checkConflicts(teams, names); err != nil {
		return "", err
	}

	teamOfTech := make(map[string]string)
	teamIDs := make(map[string]bool, len(teams))
	for _, team := range teams {
		teamIDs[team.ID] = true
		for _, techID := range team.TechnicianIDs {
			teamOfTech[techID] = team.ID
		}
	}

	orders := selectOrders(in.Orders, in.Date, in.Shift)
	byTeam := make(map[string][]models.ServiceOrder)
	for _, o := range orders {
		teamID := o.TeamID
		if !teamIDs[teamID] {
			teamID = teamOfTech[o.TechnicianID]
		}
		byTeam[teamID] = append(byTeam[teamID], o)
	}

	var b strings.Builder
	b.WriteString("RELATÓRIO DE ATENDIMENTOS\n")
	fmt.Fprintf(&b, "Data: %s - Turno: %s (%s às %s)\n", day.Format("02/01/2006"), in.Shift, window.Start, window.End)

	for _, team := range teams {
		b.WriteString("\n")
		fmt.Fprintf(&b, "CAIXA %s - %s\n", boxLabel(team.BoxNumber), team.Name)
		fmt.Fprintf(&b, "Técnicos: %s\n", technicianList(team.TechnicianIDs, names))
		if team.Notes != "" {
			fmt.Fprintf(&b, "Obs: %s\n", team.Notes)
		}
		writeOrders(&b, byTeam[team.ID], names)
	}

	if unassigned := byTeam[""]; len(unassigned) > 0 {
		b.WriteString("\n" + noTeamHeader + "\n")
		writeOrders(&b, unassigned, names)
	}

	b.WriteString("\n")
	b.WriteString(summary(orders))
	return b.String(), nil
}

// SortTeams orders teams by box number, numerically when both labels are
// numbers. Teams without a box come last.
func SortTeams(teams []models.Team) []models.Team {
	out := append([]models.Team(nil), teams...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].BoxNumber, out[j].BoxNumber
		if a == "" || b == "" {
			if a == b {
				return out[i].Name < out[j].Name
			}
			return b == ""
		}
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil && na != nb:
			return na < nb
		case errA == nil && errB == nil:
			return out[i].Name < out[j].Name
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		if a != b {
			return a < b
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func checkConflicts(teams []models.Team, names map[string]string) error {
	seen := make(map[string][]string)
	var order []string
	for _, team := range teams {
		inTeam := make(map[string]bool, len(team.TechnicianIDs))
		for _, techID := range team.TechnicianIDs {
			// a repeated id within one team is not a conflict
			if inTeam[techID] {
				continue
			}
			inTeam[techID] = true
			if _, ok := seen[techID]; !ok {
				order = append(order, techID)
			}
			seen[techID] = append(seen[techID], team.Name)
		}
	}

	var conflicts []Conflict
	for _, techID := range order {
		if len(seen[techID]) < 2 {
			continue
		}
		name := names[techID]
		if name == "" {
			name = techID
		}
		conflicts = append(conflicts, Conflict{Technician: name, Teams: seen[techID]})
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

// selectOrders keeps the orders of date and shift, sorted by time then code.
// Orders without a time sort last.
func selectOrders(orders []models.ServiceOrder, date, shift string) []models.ServiceOrder {
	var out []models.ServiceOrder
	for _, o := range orders {
		if o.ScheduledDate == date && o.InShift(shift) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledTime, out[j].ScheduledTime
		if a != b {
			if a == "" || b == "" {
				return b == ""
			}
			return a < b
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func writeOrders(b *strings.Builder, orders []models.ServiceOrder, names map[string]string) {
	if len(orders) == 0 {
		b.WriteString("Nenhuma OS\n")
		return
	}
	for _, o := range orders {
		b.WriteString(orderLine(o, names))
		b.WriteString("\n")
		if o.Alert != "" {
			fmt.Fprintf(b, "  ALERTA: %s\n", o.Alert)
		}
	}
}

func orderLine(o models.ServiceOrder, names map[string]string) string {
	parts := []string{"- OS " + o.Code, o.Type, o.Status}
	if o.ScheduledTime != "" {
		parts = append(parts, o.ScheduledTime)
	}
	if name := names[o.TechnicianID]; name != "" {
		parts = append(parts, "Téc: "+name)
	}

	location := joinNonEmpty("/", o.Neighborhood, o.City)
	switch {
	case o.CustomerName != "" && location != "":
		parts = append(parts, o.CustomerName+" - "+location)
	case o.CustomerName != "":
		parts = append(parts, o.CustomerName)
	case location != "":
		parts = append(parts, location)
	}
	return strings.Join(parts, " | ")
}

func technicianList(ids []string, names map[string]string) string {
	var out []string
	for _, id := range ids {
		if name := names[id]; name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ", ")
}

func summary(orders []models.ServiceOrder) string {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	parts := []string{fmt.Sprintf("Total: %d", len(orders))}
	for _, status := range models.Statuses {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", status, n))
		}
	}
	return strings.Join(parts, " | ")
}

func boxLabel(box string) string {
	if box == "" {
		return "S/N"
	}
	return box
}

func joinNonEmpty(sep string, values ...string) string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}

// NextBoxNumber returns the lowest positive box number not used by teams,
// formatted with two digits.
func NextBoxNumber(teams []models.Team) string {
	used := make(map[int]bool)
	for _, t := range teams {
		if n, err := strconv.Atoi(t.BoxNumber); err == nil {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("%02d", n)
}
