package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/maritime-school/training-admin/internal/models"
	"golang.org/x/sync/errgroup"
)

const upcomingSessionLimit = 5

// DashboardStats summarises the school for the home page.
type DashboardStats struct {
	Agents           int64                      `json:"agents"`
	Formateurs       int64                      `json:"formateurs"`
	Formations       int64                      `json:"formations"`
	Cours            int64                      `json:"cours"`
	Enrollments      int64                      `json:"enrollments"`
	Sessions         int                        `json:"sessions"`
	SessionsByStatus map[string]int             `json:"sessionsByStatus"`
	ResultsByOutcome map[string]int64           `json:"resultsByOutcome"`
	ActiveUsers      int                        `json:"activeUsers"`
	UpcomingSessions []*models.SessionFormation `json:"upcomingSessions"`
}

type dashboardService struct {
	deps     Dependencies
	log      *ServiceLogger
	sessions *sessionFormationService
}

func NewDashboardService(deps Dependencies) DashboardService {
	return &dashboardService{
		deps:     deps,
		log:      NewServiceLogger(deps.Logger, "dashboard"),
		sessions: newSessionFormationService(deps),
	}
}

func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	repo := s.deps.Repo

	var (
		sessions []*models.SessionFormation
		active   map[string]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	count := func(name string, dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}
	count("agents", &stats.Agents, func(ctx context.Context) (int64, error) { return repo.Agent().Count(ctx, nil) })
	count("formateurs", &stats.Formateurs, func(ctx context.Context) (int64, error) { return repo.Formateur().Count(ctx, nil) })
	count("formations", &stats.Formations, func(ctx context.Context) (int64, error) { return repo.Formation().Count(ctx, nil) })
	count("cours", &stats.Cours, func(ctx context.Context) (int64, error) { return repo.Cours().Count(ctx, nil) })
	count("enrollments", &stats.Enrollments, func(ctx context.Context) (int64, error) { return repo.AgentFormation().Count(ctx, nil) })

	g.Go(func() error {
		var err error
		sessions, err = s.sessions.load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ResultsByOutcome, err = repo.AgentFormation().CountByResultat(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to count results: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		active, err = repo.AuthSession().ActiveUserIDs(gctx, nil, s.deps.now())
		if err != nil {
			return fmt.Errorf("failed to list active sessions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Logger().ErrorContext(ctx, "Failed to load dashboard stats", "error", err)
		return nil, err
	}

	stats.Sessions = len(sessions)
	stats.ActiveUsers = len(active)
	stats.SessionsByStatus = make(map[string]int, len(models.SessionStatuses))
	for _, status := range models.SessionStatuses {
		stats.SessionsByStatus[status] = 0
	}
	upcoming := make([]*models.SessionFormation, 0, upcomingSessionLimit)
	for _, session := range sessions {
		stats.SessionsByStatus[session.DisplayStatus]++
		if session.DisplayStatus == models.SessionScheduled {
			upcoming = append(upcoming, session)
		}
	}
	slices.SortFunc(upcoming, func(a, b *models.SessionFormation) int {
		if c := a.DateDebut.Compare(b.DateDebut); c != 0 {
			return c
		}
		return int(a.ID) - int(b.ID)
	})
	if len(upcoming) > upcomingSessionLimit {
		upcoming = upcoming[:upcomingSessionLimit]
	}
	stats.UpcomingSessions = upcoming
	return stats, nil
}
