package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/modules/repo"
	"github.com/hourstack-io/hourstack/internal/querycache"
	"github.com/hourstack-io/hourstack/internal/scope"
	"github.com/hourstack-io/hourstack/internal/timesheet"
)

// MaxHoursPerEntry is an app-level soft cap; the store does not enforce it.
const MaxHoursPerEntry = 24

type EntryService interface {
	List(ctx context.Context, user *scope.Identity, role, projectID string) ([]model.TimeEntry, error)
	Create(ctx context.Context, in CreateEntryInput) (*model.TimeEntry, error)
	Delete(ctx context.Context, entryID string, actor *model.UserProfile) error
	Summary(ctx context.Context, user *scope.Identity, role, projectID string, rate timesheet.Rate) (*TimesheetSummary, error)
}

type entryService struct {
	r        repo.EntryRepo
	projects repo.ProjectRepo
	store    docstore.Store
	cache    *querycache.Cache
	events   EventPublisher
	cfg      *config.Config
	log      *zap.Logger
}

func NewEntryService(r repo.EntryRepo, projects repo.ProjectRepo, store docstore.Store, cache *querycache.Cache, events EventPublisher, cfg *config.Config, log *zap.Logger) EntryService {
	return &entryService{
		r:        r,
		projects: projects,
		store:    store,
		cache:    cache,
		events:   events,
		cfg:      cfg,
		log:      log,
	}
}

func (s *entryService) List(ctx context.Context, user *scope.Identity, role, projectID string) ([]model.TimeEntry, error) {
	q := scope.EntriesFor(user, role, projectID)
	if q == nil {
		return nil, invalidf("identity and project id are required")
	}
	records, err := s.cache.FetchWithCache(ctx, s.store, q, "", s.cfg.CacheTTL())
	if err != nil {
		return nil, err
	}
	return model.DecodeRecords[model.TimeEntry](records)
}

type CreateEntryInput struct {
	ProjectID string
	Date      string
	Task      string
	Hours     string
	User      scope.Identity
	Role      string
}

// parseHours validates the user-entered decimal: it must parse and fall in
// (0, MaxHoursPerEntry].
func parseHours(raw string) (float64, error) {
	h, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalidf("hours must be a number")
	}
	if h <= 0 {
		return 0, invalidf("hours must be greater than zero")
	}
	if h > MaxHoursPerEntry {
		return 0, invalidf("hours must not exceed %d", MaxHoursPerEntry)
	}
	return h, nil
}

func (s *entryService) Create(ctx context.Context, in CreateEntryInput) (*model.TimeEntry, error) {
	// Validation happens before any store access.
	if in.User.ID == "" {
		return nil, invalidf("identity is required")
	}
	if in.ProjectID == "" {
		return nil, invalidf("project id is empty")
	}
	if in.Task == "" {
		return nil, invalidf("task description is empty")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, invalidf("date must be YYYY-MM-DD")
	}
	hours, err := parseHours(in.Hours)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if in.Role != model.RoleAdmin && !containsString(project.AssignedUsers, in.User.ID) {
		return nil, ErrNotAssigned
	}

	entry := &model.TimeEntry{
		Date:      in.Date,
		ProjectID: in.ProjectID,
		Task:      in.Task,
		Hours:     in.Hours,
		UserID:    in.User.ID,
	}

	err = awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		_, err := s.r.Create(ctx, entry, hours)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Clear(model.CollectionTasks)
	s.cache.Clear(model.CollectionProjects)
	s.publish(ctx, EventEntryCreated, entry)
	return entry, nil
}

func (s *entryService) Delete(ctx context.Context, entryID string, actor *model.UserProfile) error {
	if entryID == "" {
		return invalidf("entry id is empty")
	}
	entry, err := s.r.Get(ctx, entryID)
	if err != nil {
		return err
	}
	// Entries are deleted by their owner or by an administrator.
	if !actor.IsAdmin() && entry.UserID != actor.ID {
		return ErrForbidden
	}

	// An unparsable stored value contributed nothing to the running total,
	// so it subtracts nothing either.
	hours, parseErr := strconv.ParseFloat(entry.Hours, 64)
	if parseErr != nil {
		hours = 0
	}

	err = awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		return s.r.Delete(ctx, entry, hours)
	})
	if err != nil {
		return err
	}

	s.cache.Clear(model.CollectionTasks)
	s.cache.Clear(model.CollectionProjects)
	s.publish(ctx, EventEntryDeleted, entry)
	return nil
}

// TimesheetSummary is the derived view of a project's entries for one caller.
// RateSet lets the presentation layer distinguish "no rate configured" from
// earnings of exactly zero.
type TimesheetSummary struct {
	ProjectID  string  `json:"project_id"`
	Entries    int     `json:"entries"`
	TotalHours float64 `json:"total_hours"`
	Earnings   float64 `json:"earnings"`
	RateSet    bool    `json:"rate_set"`
}

func (s *entryService) Summary(ctx context.Context, user *scope.Identity, role, projectID string, rate timesheet.Rate) (*TimesheetSummary, error) {
	entries, err := s.List(ctx, user, role, projectID)
	if err != nil {
		return nil, err
	}
	return &TimesheetSummary{
		ProjectID:  projectID,
		Entries:    len(entries),
		TotalHours: timesheet.TotalHours(entries),
		Earnings:   timesheet.Earnings(entries, rate),
		RateSet:    rate.Set,
	}, nil
}

func (s *entryService) publish(ctx context.Context, eventType string, entry *model.TimeEntry) {
	if s.events == nil {
		return
	}
	event := EntryEvent{
		Type:       eventType,
		EntryID:    entry.ID,
		ProjectID:  entry.ProjectID,
		UserID:     entry.UserID,
		Date:       entry.Date,
		Hours:      entry.Hours,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishJSON(ctx, s.cfg.RabbitMQ.Exchange, eventType, event); err != nil {
		// The store write already committed; the event is best-effort.
		s.log.Warn("entry event publish failed",
			zap.String("type", eventType),
			zap.String("entry_id", entry.ID),
			zap.Error(err))
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
