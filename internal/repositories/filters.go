package repositories

// ===== SHARED FILTER STRUCTS =====

// Filters narrow the rows loaded from the database; ordering and paging of
// entity lists happen in the datatable engine.

type AgentFormationFilters struct {
	AgentID            *uint   `json:"agentId"`
	FormationID        *uint   `json:"formationId"`
	SessionFormationID *uint   `json:"sessionFormationId"`
	Resultat           *string `json:"resultat"`
}

type CoursFormateurFilters struct {
	FormateurID *uint `json:"formateurId"`
	CoursID     *uint `json:"coursId"`
}

type AgentSearch struct {
	MatriculePrefix string `json:"matricule"`
	ExcludeIDs      []uint `json:"excludeIds"`
	Limit           int    `json:"limit"`
}

type AuditLogFilters struct {
	Entity   string `json:"entity"`
	EntityID string `json:"entityId"`
	ActorID  string `json:"actorId"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}
