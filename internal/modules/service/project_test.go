package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/querycache"
	"github.com/hourstack-io/hourstack/internal/scope"
)

func newProjectService(r *MockProjectRepo, store docstore.Store, cache *querycache.Cache) ProjectService {
	return NewProjectService(r, store, cache, testConfig(), zap.NewNop())
}

func TestProjectService_List(t *testing.T) {
	store := &queryStore{records: []docstore.Record{
		{"id": "p1", "name": "alpha", "total_hours": 3.5},
	}}
	svc := newProjectService(&MockProjectRepo{}, store, querycache.New(0))

	t.Run("member query is membership-scoped", func(t *testing.T) {
		projects, err := svc.List(context.Background(), &scope.Identity{ID: "u1"}, model.RoleMember)
		assert.NoError(t, err)
		assert.Len(t, projects, 1)
		assert.Equal(t, "alpha", projects[0].Name)
		assert.Equal(t, []docstore.Constraint{
			{Field: "assigned_users", Op: docstore.OpArrayContains, Value: "u1"},
		}, store.lastQuery.Constraints)
	})

	t.Run("admin query is unconstrained", func(t *testing.T) {
		_, err := svc.List(context.Background(), &scope.Identity{ID: "boss"}, model.RoleAdmin)
		assert.NoError(t, err)
		assert.Empty(t, store.lastQuery.Constraints)
	})

	t.Run("missing identity is rejected", func(t *testing.T) {
		_, err := svc.List(context.Background(), nil, model.RoleMember)
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestProjectService_Get(t *testing.T) {
	project := &model.Project{ID: "p1", Name: "alpha", AssignedUsers: []string{"u1"}}

	newSvc := func() ProjectService {
		r := &MockProjectRepo{}
		r.On("Get", mock.Anything, "p1").Return(project, nil)
		return newProjectService(r, &queryStore{}, querycache.New(0))
	}

	t.Run("assigned member sees the project", func(t *testing.T) {
		got, err := newSvc().Get(context.Background(), &scope.Identity{ID: "u1"}, model.RoleMember, "p1")
		assert.NoError(t, err)
		assert.Equal(t, "alpha", got.Name)
	})

	t.Run("admin sees any project", func(t *testing.T) {
		_, err := newSvc().Get(context.Background(), &scope.Identity{ID: "boss"}, model.RoleAdmin, "p1")
		assert.NoError(t, err)
	})

	t.Run("unassigned member is rejected", func(t *testing.T) {
		_, err := newSvc().Get(context.Background(), &scope.Identity{ID: "u2"}, model.RoleMember, "p1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing identity is rejected", func(t *testing.T) {
		_, err := newSvc().Get(context.Background(), nil, model.RoleMember, "p1")
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestProjectService_Create(t *testing.T) {
	t.Run("creator is seeded into assigned users", func(t *testing.T) {
		r := &MockProjectRepo{}
		r.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
			return p.Name == "alpha" &&
				p.CreatedBy == "u1" &&
				len(p.AssignedUsers) == 1 && p.AssignedUsers[0] == "u1" &&
				p.TotalHours == 0
		})).Return("p1", nil)
		svc := newProjectService(r, &queryStore{}, querycache.New(0))

		project, err := svc.Create(context.Background(), CreateProjectInput{
			Name:    "alpha",
			Creator: scope.Identity{ID: "u1"},
		})
		assert.NoError(t, err)
		assert.Equal(t, "p1", project.ID)
		r.AssertExpectations(t)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		svc := newProjectService(&MockProjectRepo{}, &queryStore{}, querycache.New(0))
		_, err := svc.Create(context.Background(), CreateProjectInput{Creator: scope.Identity{ID: "u1"}})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestProjectService_WritesInvalidateProjectCache(t *testing.T) {
	cache := querycache.New(time.Minute)
	store := &queryStore{records: []docstore.Record{{"id": "p1", "name": "alpha"}}}
	r := &MockProjectRepo{}
	r.On("Create", mock.Anything, mock.Anything).Return("p2", nil)
	svc := newProjectService(r, store, cache)

	user := &scope.Identity{ID: "u1"}
	_, err := svc.List(context.Background(), user, model.RoleMember)
	assert.NoError(t, err)

	key := scope.ProjectsFor(user, model.RoleMember).CacheKey()
	_, cached := cache.Get(key)
	assert.True(t, cached)

	_, err = svc.Create(context.Background(), CreateProjectInput{
		Name: "beta", Creator: scope.Identity{ID: "u1"},
	})
	assert.NoError(t, err)

	// The stale listing is gone after the write.
	_, cached = cache.Get(key)
	assert.False(t, cached)
}

func TestProjectService_Members(t *testing.T) {
	r := &MockProjectRepo{}
	r.On("AddMember", mock.Anything, "p1", "u2").Return(nil)
	r.On("RemoveMember", mock.Anything, "p1", "u2").Return(nil)
	svc := newProjectService(r, &queryStore{}, querycache.New(0))

	assert.NoError(t, svc.AddMember(context.Background(), "p1", "u2"))
	assert.NoError(t, svc.RemoveMember(context.Background(), "p1", "u2"))
	assert.ErrorIs(t, svc.AddMember(context.Background(), "", "u2"), ErrInvalid)
	assert.ErrorIs(t, svc.RemoveMember(context.Background(), "p1", ""), ErrInvalid)
	r.AssertExpectations(t)
}
