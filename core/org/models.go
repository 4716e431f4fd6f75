package org

// Shift codes are campus-defined (eg. "M" morning, "A" afternoon). A
// coordinator scoped to ShiftBoth covers every shift of its campus.
const ShiftBoth = "both"

// Levels group grades within a campus.
const (
	LevelPrimary   = "primary"
	LevelSecondary = "secondary"
)

// Actor roles, as resolved by the external auth collaborator.
const (
	RoleSupervisor  = "supervisor"  // homeroom teacher; initiates in-campus transfers
	RoleCoordinator = "coordinator" // approval authority for a level/shift scope
	RoleRegistrar   = "registrar"   // campus-level user; owns cross-campus requests
	RoleAdmin       = "admin"
)

type (
	Campus struct {
		ID   string `json:"id"`
		Code string `json:"code"` // identifier segment, eg. "C04"
		Name string `json:"name"`
	}

	Grade struct {
		ID       string `json:"id"`
		CampusID string `json:"campus_id"`
		Level    string `json:"level"`
		Name     string `json:"name"`
		Ordinal  int    `json:"ordinal"` // position within the campus ladder; skip = +1
	}

	Classroom struct {
		ID       string `json:"id"`
		CampusID string `json:"campus_id"`
		GradeID  string `json:"grade_id"`
		Shift    string `json:"shift"`
		Section  string `json:"section"` // display label, eg. "A"
		Capacity int    `json:"capacity"`
		Enrolled int    `json:"enrolled"`
	}

	// Coordinator is a supervisory role-holder scoped to one or more
	// levels/shifts within a campus.
	Coordinator struct {
		ID       string   `json:"id"`
		CampusID string   `json:"campus_id"`
		Name     string   `json:"name"`
		Shift    string   `json:"shift"` // shift code or ShiftBoth
		Level    string   `json:"level"` // single assigned level
		Levels   []string `json:"levels"`
		IsActive bool     `json:"is_active"`

		// actor resolution fallbacks, in order
		ActorID  string `json:"actor_id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	}

	// Actor is the authenticated caller, as handed over by the external auth
	// collaborator. ScopeIDs carries the org object IDs the actor acts for
	// (eg. its coordinator or campus IDs).
	Actor struct {
		ID       string   `json:"id"`
		Role     string   `json:"role"`
		ScopeIDs []string `json:"scope_ids"`
	}
)

// HasScope reports whether id is among the actor's scope IDs.
func (a Actor) HasScope(id string) bool {
	for _, s := range a.ScopeIDs {
		if s == id {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// ManagedLevels returns the set of levels the coordinator is allowed to act
// on: its assigned-level set plus its single level field.
func (c Coordinator) ManagedLevels() map[string]bool {
	levels := make(map[string]bool, len(c.Levels)+1)
	for _, l := range c.Levels {
		levels[l] = true
	}
	if c.Level != "" {
		levels[c.Level] = true
	}
	return levels
}

// Manages reports whether the coordinator covers the given level/shift pair.
// A ShiftBoth coordinator covers every level in its managed set; a
// shift-bound coordinator covers only its single assigned level, on its own
// shift.
func (c Coordinator) Manages(level, shift string) bool {
	if c.Shift == ShiftBoth {
		return c.ManagedLevels()[level]
	}
	return c.Shift == shift && c.Level == level
}
