package tables

import (
	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/models"
)

func Agents() *datatable.Table[*models.Agent] {
	return &datatable.Table[*models.Agent]{
		Name: "agents",
		RTL:  true,
		Columns: []datatable.Column[*models.Agent]{
			text("nomPrenom", "الاسم واللقب", func(a *models.Agent) string { return a.NomPrenom }),
			rank("grade", "الرتبة", func(a *models.Agent) string { return a.Grade }),
			text("matricule", "المعرف الوحيد", func(a *models.Agent) string { return a.Matricule }),
			text("categorie", "الفئة", func(a *models.Agent) string { return a.Categorie }),
			text("responsabilite", "المسؤولية", func(a *models.Agent) string { return a.Responsabilite }),
			phone("telephone", "الهاتف", func(a *models.Agent) string {
				if a.Telephone == nil {
					return ""
				}
				return *a.Telephone
			}),
			date("lastFormationDate", "تاريخ آخر تكوين", func(a *models.Agent) any { return a.LastFormationDate }),
		},
		Search: func(a *models.Agent) []string { return []string{a.NomPrenom, a.Responsabilite} },
		Prefixes: map[string]func(*models.Agent) string{
			"matricule": func(a *models.Agent) string { return a.Matricule },
		},
		Filters: map[string]func(*models.Agent) string{
			"grade":     func(a *models.Agent) string { return a.Grade },
			"categorie": func(a *models.Agent) string { return a.Categorie },
			"year":      func(a *models.Agent) string { return optionalYear(a.LastFormationDate) },
		},
		DefaultOrder: datatable.Then(
			datatable.By(func(a *models.Agent) string { return a.Grade }, datatable.CompareRank),
			datatable.By(func(a *models.Agent) string { return a.NomPrenom }, datatable.CompareString),
		),
		ID: func(a *models.Agent) uint { return a.ID },
	}
}

func Formateurs() *datatable.Table[*models.Formateur] {
	return &datatable.Table[*models.Formateur]{
		Name: "formateurs",
		RTL:  true,
		Columns: []datatable.Column[*models.Formateur]{
			text("nomPrenom", "الاسم واللقب", func(f *models.Formateur) string { return f.NomPrenom }),
			rank("grade", "الرتبة", func(f *models.Formateur) string { return f.Grade }),
			text("unite", "الوحدة", func(f *models.Formateur) string { return f.Unite }),
			text("responsabilite", "المسؤولية", func(f *models.Formateur) string { return f.Responsabilite }),
			phone("telephone", "الهاتف", func(f *models.Formateur) string { return f.Telephone }),
			{Key: "rib", Header: "رقم الحساب البنكي", Value: func(f *models.Formateur) any { return f.RIB }, Width: 26},
		},
		Search: func(f *models.Formateur) []string { return []string{f.NomPrenom, f.Unite} },
		Filters: map[string]func(*models.Formateur) string{
			"grade": func(f *models.Formateur) string { return f.Grade },
			"unite": func(f *models.Formateur) string { return f.Unite },
		},
		DefaultOrder: datatable.Then(
			datatable.By(func(f *models.Formateur) string { return f.Grade }, datatable.CompareRank),
			datatable.By(func(f *models.Formateur) string { return f.NomPrenom }, datatable.CompareString),
		),
		ID: func(f *models.Formateur) uint { return f.ID },
	}
}

func Formations() *datatable.Table[*models.Formation] {
	return &datatable.Table[*models.Formation]{
		Name: "formations",
		RTL:  true,
		Columns: []datatable.Column[*models.Formation]{
			text("formation", "التكوين", func(f *models.Formation) string { return f.Formation }),
			text("typeFormation", "نوع التكوين", func(f *models.Formation) string { return f.TypeFormation }),
			optionalText("specialite", "الاختصاص", func(f *models.Formation) *string { return f.Specialite }),
			text("duree", "المدة", func(f *models.Formation) string { return f.Duree }),
			number("capaciteAbsorption", "طاقة الاستيعاب", func(f *models.Formation) int { return f.CapaciteAbsorption }),
		},
		Search: func(f *models.Formation) []string { return []string{f.Formation} },
		Filters: map[string]func(*models.Formation) string{
			"typeFormation": func(f *models.Formation) string { return f.TypeFormation },
			"specialite":    func(f *models.Formation) string { return deref(f.Specialite) },
		},
		ID: func(f *models.Formation) uint { return f.ID },
	}
}

func Cours() *datatable.Table[*models.Cours] {
	formationTitle := func(c *models.Cours) string {
		if c.Formation == nil {
			return ""
		}
		return c.Formation.Formation
	}
	return &datatable.Table[*models.Cours]{
		Name: "cours",
		RTL:  true,
		Columns: []datatable.Column[*models.Cours]{
			text("cours", "الدرس", func(c *models.Cours) string { return c.Cours }),
			text("formation", "التكوين", formationTitle),
		},
		Search: func(c *models.Cours) []string { return []string{c.Cours, formationTitle(c)} },
		Filters: map[string]func(*models.Cours) string{
			"formationId": func(c *models.Cours) string { return optionalID(c.FormationID) },
		},
		ID: func(c *models.Cours) uint { return c.ID },
	}
}

func AgentFormations() *datatable.Table[*models.AgentFormation] {
	agentName := func(af *models.AgentFormation) string {
		if af.Agent == nil {
			return ""
		}
		return af.Agent.NomPrenom
	}
	matricule := func(af *models.AgentFormation) string {
		if af.Agent == nil {
			return ""
		}
		return af.Agent.Matricule
	}
	formationTitle := func(af *models.AgentFormation) string {
		if af.Formation == nil {
			return ""
		}
		return af.Formation.Formation
	}
	moyenne := func(af *models.AgentFormation) float64 {
		if af.Moyenne == nil {
			return -1
		}
		return *af.Moyenne
	}
	return &datatable.Table[*models.AgentFormation]{
		Name: "agent_formations",
		RTL:  true,
		Columns: []datatable.Column[*models.AgentFormation]{
			text("agent", "الاسم واللقب", agentName),
			text("matricule", "المعرف الوحيد", matricule),
			text("formation", "التكوين", formationTitle),
			date("dateDebut", "تاريخ البداية", func(af *models.AgentFormation) any { return af.DateDebut }),
			date("dateFin", "تاريخ النهاية", func(af *models.AgentFormation) any { return af.DateFin }),
			optionalText("reference", "المرجع", func(af *models.AgentFormation) *string { return af.Reference }),
			optionalText("resultat", "النتيجة", func(af *models.AgentFormation) *string { return af.Resultat }),
			{
				Key:     "moyenne",
				Header:  "المعدل",
				Value:   func(af *models.AgentFormation) any { return af.Moyenne },
				Compare: datatable.By(moyenne, datatable.CompareOrdered[float64]),
				Width:   10,
			},
		},
		Search: func(af *models.AgentFormation) []string { return []string{agentName(af), formationTitle(af)} },
		Prefixes: map[string]func(*models.AgentFormation) string{
			"matricule": matricule,
		},
		Filters: map[string]func(*models.AgentFormation) string{
			"resultat":    func(af *models.AgentFormation) string { return deref(af.Resultat) },
			"year":        func(af *models.AgentFormation) string { return year(af.DateDebut) },
			"formationId": func(af *models.AgentFormation) string { return idString(af.FormationID) },
			"agentId":     func(af *models.AgentFormation) string { return idString(af.AgentID) },
			"sessionId":   func(af *models.AgentFormation) string { return optionalID(af.SessionFormationID) },
		},
		DefaultOrder: datatable.Reverse(datatable.By(func(af *models.AgentFormation) any { return af.DateDebut }, datatable.CompareDate)),
		ID:           func(af *models.AgentFormation) uint { return af.ID },
	}
}

func CoursFormateurs() *datatable.Table[*models.CoursFormateur] {
	formateurName := func(cf *models.CoursFormateur) string {
		if cf.Formateur == nil {
			return ""
		}
		return cf.Formateur.NomPrenom
	}
	coursTitle := func(cf *models.CoursFormateur) string {
		if cf.Cours == nil {
			return ""
		}
		return cf.Cours.Cours
	}
	return &datatable.Table[*models.CoursFormateur]{
		Name: "cours_formateurs",
		RTL:  true,
		Columns: []datatable.Column[*models.CoursFormateur]{
			text("formateur", "المكون", formateurName),
			text("cours", "الدرس", coursTitle),
			date("dateDebut", "تاريخ البداية", func(cf *models.CoursFormateur) any { return cf.DateDebut }),
			date("dateFin", "تاريخ النهاية", func(cf *models.CoursFormateur) any { return cf.DateFin }),
			number("nombreHeures", "عدد الساعات", func(cf *models.CoursFormateur) int { return cf.NombreHeures }),
			optionalText("reference", "المرجع", func(cf *models.CoursFormateur) *string { return cf.Reference }),
		},
		Search: func(cf *models.CoursFormateur) []string { return []string{formateurName(cf), coursTitle(cf)} },
		Filters: map[string]func(*models.CoursFormateur) string{
			"formateurId": func(cf *models.CoursFormateur) string { return idString(cf.FormateurID) },
			"coursId":     func(cf *models.CoursFormateur) string { return idString(cf.CoursID) },
			"year":        func(cf *models.CoursFormateur) string { return year(cf.DateDebut) },
		},
		DefaultOrder: datatable.Reverse(datatable.By(func(cf *models.CoursFormateur) any { return cf.DateDebut }, datatable.CompareDate)),
		ID:           func(cf *models.CoursFormateur) uint { return cf.ID },
	}
}

// Sessions expects DisplayStatus and EnrolledCount to be populated.
func Sessions() *datatable.Table[*models.SessionFormation] {
	formationTitle := func(s *models.SessionFormation) string {
		if s.Formation == nil {
			return ""
		}
		return s.Formation.Formation
	}
	byDateDesc := datatable.Reverse(datatable.By(func(s *models.SessionFormation) any { return s.DateDebut }, datatable.CompareDate))
	return &datatable.Table[*models.SessionFormation]{
		Name: "sessions",
		RTL:  true,
		Columns: []datatable.Column[*models.SessionFormation]{
			text("formation", "التكوين", formationTitle),
			text("reference", "المرجع", func(s *models.SessionFormation) string { return s.Reference }),
			date("dateDebut", "تاريخ البداية", func(s *models.SessionFormation) any { return s.DateDebut }),
			date("dateFin", "تاريخ النهاية", func(s *models.SessionFormation) any { return s.DateFin }),
			number("nombreParticipants", "عدد المشاركين", func(s *models.SessionFormation) int { return s.NombreParticipants }),
			number("enrolledCount", "المسجلون", func(s *models.SessionFormation) int64 { return s.EnrolledCount }),
			{
				Key:     "displayStatus",
				Header:  "الحالة",
				Value:   func(s *models.SessionFormation) any { return s.DisplayStatus },
				Compare: datatable.By(func(s *models.SessionFormation) int { return models.StatusPriority(s.DisplayStatus) }, datatable.CompareOrdered[int]),
			},
		},
		Search: func(s *models.SessionFormation) []string { return []string{formationTitle(s), s.Reference} },
		Filters: map[string]func(*models.SessionFormation) string{
			"status":      func(s *models.SessionFormation) string { return s.DisplayStatus },
			"year":        func(s *models.SessionFormation) string { return year(s.DateDebut) },
			"formationId": func(s *models.SessionFormation) string { return idString(s.FormationID) },
		},
		DefaultOrder: datatable.Then(
			datatable.By(func(s *models.SessionFormation) int { return models.StatusPriority(s.DisplayStatus) }, datatable.CompareOrdered[int]),
			byDateDesc,
		),
		ID: func(s *models.SessionFormation) uint { return s.ID },
	}
}

// Users rows are keyed by uuid, so they cannot be restricted by ids.
func Users() *datatable.Table[*models.User] {
	return &datatable.Table[*models.User]{
		Name: "users",
		RTL:  true,
		Columns: []datatable.Column[*models.User]{
			text("name", "الاسم", func(u *models.User) string { return u.Name }),
			text("email", "البريد الإلكتروني", func(u *models.User) string { return u.Email }),
			text("role", "الدور", func(u *models.User) string { return u.Role }),
			plain("emailVerified", "البريد مؤكد", func(u *models.User) any { return u.EmailVerified }),
			plain("hasActiveSession", "جلسة نشطة", func(u *models.User) any { return u.HasActiveSession }),
			date("createdAt", "تاريخ الإنشاء", func(u *models.User) any { return u.CreatedAt }),
		},
		Search: func(u *models.User) []string { return []string{u.Name, u.Email} },
		Filters: map[string]func(*models.User) string{
			"role": func(u *models.User) string { return u.Role },
		},
	}
}

func Roles() *datatable.Table[*models.Role] {
	return &datatable.Table[*models.Role]{
		Name: "roles",
		RTL:  true,
		Columns: []datatable.Column[*models.Role]{
			text("name", "المعرف", func(r *models.Role) string { return r.Name }),
			text("displayName", "الدور", func(r *models.Role) string { return r.DisplayName }),
			text("description", "الوصف", func(r *models.Role) string { return r.Description }),
			text("color", "اللون", func(r *models.Role) string { return string(r.Color) }),
			plain("isSystem", "دور النظام", func(r *models.Role) any { return r.IsSystem }),
			number("userCount", "عدد المستخدمين", func(r *models.Role) int64 { return r.UserCount }),
		},
		Search: func(r *models.Role) []string { return []string{r.Name, r.DisplayName} },
	}
}
