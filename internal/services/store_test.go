package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// tickClock returns a clock that advances one second per call.
func tickClock() func() time.Time {
	var (
		mu sync.Mutex
		t  = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := repo.OpenInMemory("services_test")
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s, err := NewStore(db, WithClock(tickClock()), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

func mustUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.NewUser{
		Username: name,
		Email:    name + "@wolfomanai.com",
		Password: "secret",
	})
	require.NoError(t, err)
	return u
}

func mustProject(t *testing.T, s *Store, owner int64, name string) *domain.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), domain.NewProject{
		Name:       name,
		Technology: "Go",
		OwnerID:    owner,
	})
	require.NoError(t, err)
	return p
}

func TestStore_SharedSequenceAcrossKinds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustUser(t, s, "admin")
	p := mustProject(t, s, u.ID, "P1")
	m, err := s.CreateMessage(ctx, domain.NewMessage{Content: "hi", UserID: &u.ID, ProjectID: &p.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, int64(3), m.ID)
}

func TestStore_FailedInsertDoesNotConsumeID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustUser(t, s, "admin")
	_, err := s.CreateProject(ctx, domain.NewProject{Name: "X", Technology: "Go", OwnerID: 999})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateUser(ctx, domain.NewUser{Username: "admin", Email: "other@x.io", Password: "p"})
	require.ErrorIs(t, err, ErrDuplicate)

	p := mustProject(t, s, u.ID, "P1")
	assert.Equal(t, int64(2), p.ID)
}

func TestStore_ResumesSequenceFromExistingRows(t *testing.T) {
	s := newTestStore(t)
	mustUser(t, s, "a")
	mustUser(t, s, "b")

	again, err := NewStore(s.DB(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	u, err := again.CreateUser(context.Background(), domain.NewUser{Username: "c", Email: "c@x.io", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
}

func TestStore_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	s := newTestStore(t)
	owner := mustUser(t, s, "owner")

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.CreateMessage(context.Background(), domain.NewMessage{Content: "x", UserID: &owner.ID})
			if err == nil {
				ids <- m.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestStore_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "admin")

	cases := []struct {
		name string
		run  func() error
	}{
		{"user without email", func() error {
			_, err := s.CreateUser(ctx, domain.NewUser{Username: "x", Password: "p"})
			return err
		}},
		{"user bad status", func() error {
			_, err := s.CreateUser(ctx, domain.NewUser{Username: "x", Email: "x@x.io", Password: "p", Status: "away"})
			return err
		}},
		{"project without technology", func() error {
			_, err := s.CreateProject(ctx, domain.NewProject{Name: "x", OwnerID: u.ID})
			return err
		}},
		{"project progress out of range", func() error {
			_, err := s.CreateProject(ctx, domain.NewProject{Name: "x", Technology: "Go", OwnerID: u.ID, Progress: ptr(101)})
			return err
		}},
		{"message bad type", func() error {
			_, err := s.CreateMessage(ctx, domain.NewMessage{Content: "x", Type: "system"})
			return err
		}},
		{"empty message", func() error {
			_, err := s.CreateMessage(ctx, domain.NewMessage{})
			return err
		}},
		{"deployment without version", func() error {
			_, err := s.CreateDeployment(ctx, domain.NewDeployment{ProjectID: 1})
			return err
		}},
		{"activity without action", func() error {
			_, err := s.CreateActivity(ctx, domain.NewActivity{UserID: u.ID})
			return err
		}},
		{"patch with bad status", func() error {
			_, err := s.UpdateProject(ctx, 1, domain.ProjectPatch{Status: ptr("archived")})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), ErrValidation)
		})
	}
}

func TestStore_UpdatesPreserveIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "admin")
	p := mustProject(t, s, u.ID, "P1")

	got, err := s.UpdateProject(ctx, p.ID, domain.ProjectPatch{Progress: ptr(40), Name: ptr("P1b")})
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 40, got.Progress)
	assert.Equal(t, "P1b", got.Name)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
	assert.True(t, got.UpdatedAt.After(p.UpdatedAt))

	reread, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, reread.Progress)

	_, err = s.UpdateProject(ctx, 999, domain.ProjectPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateTeamMember(ctx, 999, domain.TeamMemberPatch{Role: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateDeployment(ctx, 999, domain.DeploymentPatch{Status: ptr("live")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateUser(ctx, 999, domain.UserPatch{Role: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateProject(ctx, p.ID, domain.ProjectPatch{OwnerID: ptr(int64(999))})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStore_DeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "admin")
	p := mustProject(t, s, u.ID, "P1")
	other := mustProject(t, s, u.ID, "P2")

	_, err := s.CreateTeamMember(ctx, domain.NewTeamMember{ProjectID: p.ID, UserID: u.ID})
	require.NoError(t, err)
	_, err = s.CreateDeployment(ctx, domain.NewDeployment{ProjectID: p.ID, Version: "v1"})
	require.NoError(t, err)
	_, err = s.CreateActivity(ctx, domain.NewActivity{UserID: u.ID, ProjectID: &p.ID, Action: ActionProjectCreated})
	require.NoError(t, err)
	_, err = s.CreateActivity(ctx, domain.NewActivity{UserID: u.ID, ProjectID: &other.ID, Action: ActionProjectCreated})
	require.NoError(t, err)
	msg, err := s.CreateMessage(ctx, domain.NewMessage{Content: "hi", ProjectID: &p.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	require.NoError(t, s.DeleteProject(ctx, p.ID), "delete is idempotent")

	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	team, _ := s.ListTeamMembersByProject(ctx, p.ID)
	assert.Empty(t, team)
	deps, _ := s.ListDeploymentsByProject(ctx, p.ID)
	assert.Empty(t, deps)
	acts, _ := s.ListActivitiesByProject(ctx, p.ID, 0)
	assert.Empty(t, acts)

	kept, _ := s.ListActivitiesByProject(ctx, other.ID, 0)
	assert.Len(t, kept, 1)
	_, err = s.GetMessage(ctx, msg.ID)
	assert.NoError(t, err)
}

func TestStore_MessagesNewestFirstWithDefaultLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pid := int64(77)

	for i := 0; i < DefaultMessageLimit+5; i++ {
		_, err := s.CreateMessage(ctx, domain.NewMessage{Content: "m", ProjectID: &pid})
		require.NoError(t, err)
	}
	got, err := s.ListMessagesByProject(ctx, pid, 0)
	require.NoError(t, err)
	require.Len(t, got, DefaultMessageLimit)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i-1].ID, got[i].ID)
	}

	few, err := s.ListMessages(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, few, 3)
	assert.Equal(t, got[0].ID, few[0].ID)
}

func TestStore_UsersEmailCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, domain.NewUser{Username: "sara", Email: "Sara@WolfOmanAI.com", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "sara@wolfomanai.com", u.Email)
	assert.Equal(t, domain.DefaultUserRole, u.Role)
	assert.Equal(t, domain.StatusOffline, u.Status)
	assert.NotEqual(t, "p", u.Password)

	got, err := s.GetUserByEmail(ctx, "SARA@wolfomanai.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.CreateUser(ctx, domain.NewUser{Username: "sara2", Email: "sara@wolfomanai.com", Password: "p"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStore_LoginLogout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "ahmed")

	_, err := s.Login(ctx, "ahmed", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	in, err := s.Login(ctx, "ahmed", "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnline, in.Status)

	require.NoError(t, s.Logout(ctx, u.ID))
	out, _ := s.GetUser(ctx, u.ID)
	assert.Equal(t, domain.StatusOffline, out.Status)

	// Password changes are hashed and take effect for login.
	_, err = s.UpdateUser(ctx, u.ID, domain.UserPatch{Password: ptr("n3w")})
	require.NoError(t, err)
	_, err = s.Login(ctx, "ahmed", "n3w")
	assert.NoError(t, err)
}

func TestStore_TeamMemberDuplicatesAllowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "admin")
	p := mustProject(t, s, u.ID, "P1")

	a, err := s.CreateTeamMember(ctx, domain.NewTeamMember{ProjectID: p.ID, UserID: u.ID})
	require.NoError(t, err)
	b, err := s.CreateTeamMember(ctx, domain.NewTeamMember{ProjectID: p.ID, UserID: u.ID, Role: "lead"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, domain.DefaultMemberRole, a.Role)

	n, err := s.CountTeamMembers(ctx, &p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	upd, err := s.UpdateTeamMember(ctx, a.ID, domain.TeamMemberPatch{Role: ptr("developer")})
	require.NoError(t, err)
	assert.True(t, upd.JoinedAt.Equal(a.JoinedAt))

	require.NoError(t, s.DeleteTeamMember(ctx, a.ID))
	mine, _ := s.ListTeamMembersByUser(ctx, u.ID)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)
}

func TestStore_DeploymentDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "admin")
	p := mustProject(t, s, u.ID, "P1")

	d, err := s.CreateDeployment(ctx, domain.NewDeployment{ProjectID: p.ID, Version: "v1"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDeployStatus, d.Status)
	assert.Equal(t, domain.DefaultDeployEnv, d.Environment)

	d2, err := s.CreateDeployment(ctx, domain.NewDeployment{ProjectID: p.ID, Version: "v2", Status: "live", Environment: "production"})
	require.NoError(t, err)

	all, err := s.ListDeployments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, d2.ID, all[0].ID)
}

// steppedClock is a manual clock tests move in either direction.
type steppedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *steppedClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestStore_ClockStepBackKeepsTimestampsMonotonic(t *testing.T) {
	db, err := repo.OpenInMemory("services_clock")
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	clock := &steppedClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := NewStore(db, WithClock(clock.Now), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	ctx := context.Background()

	u := mustUser(t, s, "admin")
	p := mustProject(t, s, u.ID, "P1")
	m1, err := s.CreateMessage(ctx, domain.NewMessage{Content: "first", ProjectID: &p.ID})
	require.NoError(t, err)

	clock.Add(-2 * time.Second)

	m2, err := s.CreateMessage(ctx, domain.NewMessage{Content: "second", ProjectID: &p.ID})
	require.NoError(t, err)
	assert.False(t, m2.CreatedAt.Before(m1.CreatedAt))

	updated, err := s.UpdateProject(ctx, p.ID, domain.ProjectPatch{Progress: ptr(10)})
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(p.UpdatedAt))

	list, err := s.ListMessagesByProject(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, m2.ID, list[0].ID)
	assert.Equal(t, m1.ID, list[1].ID)

	// A store opened later with an earlier clock still never rewinds a row.
	behind := &steppedClock{t: clock.Now().Add(-time.Hour)}
	s2, err := NewStore(db, WithClock(behind.Now), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	prev, err := s2.GetUser(ctx, u.ID)
	require.NoError(t, err)
	online := domain.StatusOnline
	after, err := s2.UpdateUser(ctx, u.ID, domain.UserPatch{Status: &online})
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(prev.UpdatedAt))
}
