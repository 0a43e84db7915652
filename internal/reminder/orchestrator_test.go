package reminder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/scheduler"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/store"
)

// fakeRepo is an in-memory store.Repo keyed by (owner, name).
type fakeRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Birthday
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: make(map[string]*domain.Birthday)} }

func ownerKey(ownerID int64, name string) string { return fmt.Sprintf("%d/%s", ownerID, name) }

func (f *fakeRepo) Create(_ context.Context, b *domain.Birthday) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ownerKey(b.OwnerID, b.Name)
	if _, ok := f.rows[k]; ok {
		return store.ErrDuplicate
	}
	cp := *b
	f.rows[k] = &cp
	return nil
}

func (f *fakeRepo) GetByOwner(_ context.Context, ownerID int64, name string) (*domain.Birthday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.rows[ownerKey(ownerID, name)]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) GetByChat(_ context.Context, chatID int64, name string) (*domain.Birthday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.rows {
		if b.ChatID == chatID && b.Name == name {
			cp := *b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) ListByOwner(_ context.Context, ownerID int64) ([]domain.Birthday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Birthday
	for _, b := range f.rows {
		if b.OwnerID == ownerID {
			res = append(res, *b)
		}
	}
	return res, nil
}

func (f *fakeRepo) ListAll(context.Context) ([]domain.Birthday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Birthday
	for _, b := range f.rows {
		res = append(res, *b)
	}
	return res, nil
}

func (f *fakeRepo) UpdateReminderTime(_ context.Context, ownerID int64, name string, hour, minute int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[ownerKey(ownerID, name)]
	if !ok {
		return store.ErrNotFound
	}
	b.ReminderHour, b.ReminderMinute = hour, minute
	return nil
}

func (f *fakeRepo) UpdateFlags(_ context.Context, ownerID int64, name string, r3d, r1d, rd bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[ownerKey(ownerID, name)]
	if !ok {
		return store.ErrNotFound
	}
	b.Remind3Days, b.Remind1Day, b.RemindDay = r3d, r1d, rd
	return nil
}

func (f *fakeRepo) UpdateUsername(_ context.Context, ownerID int64, name, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[ownerKey(ownerID, name)]
	if !ok {
		return store.ErrNotFound
	}
	b.Username = username
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, ownerID int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ownerKey(ownerID, name)
	if _, ok := f.rows[k]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, k)
	return nil
}

func (f *fakeRepo) Close() error { return nil }

// fakeSender records every delivered message.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) SendMessage(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeComposer struct{}

func (fakeComposer) Compose(name string, _ time.Time, description string) string {
	if description != "" {
		return "congrats " + name + " / " + description
	}
	return "congrats " + name
}

// testClock is fixed far in the future so computed due instants stay pending
// rather than firing during the test.
func testClock(t *testing.T) (func() time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	now := time.Date(2031, time.May, 10, 12, 0, 0, 0, loc)
	return func() time.Time { return now }, loc
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeRepo, *fakeSender, *scheduler.Scheduler, *time.Location) {
	t.Helper()
	now, loc := testClock(t)
	sched := scheduler.New(zap.NewNop(), nil)
	t.Cleanup(sched.Stop)
	repo := newFakeRepo()
	sender := &fakeSender{}
	o := New(zap.NewNop(), sched, repo, sender, fakeComposer{}, now)
	return o, repo, sender, sched, loc
}

func annaBirthday(loc *time.Location) *domain.Birthday {
	return &domain.Birthday{
		OwnerID:        100,
		ChatID:         200,
		Name:           "Anna",
		Birthdate:      time.Date(1990, time.May, 15, 0, 0, 0, 0, loc),
		Description:    "loves cats",
		Username:       "anna",
		ReminderHour:   9,
		ReminderMinute: 0,
		Remind3Days:    true,
		Remind1Day:     true,
		RemindDay:      true,
	}
}

func TestArm_RegistersFiveJobsWithCorrectDueInstants(t *testing.T) {
	o, _, _, sched, loc := newTestOrchestrator(t)
	b := annaBirthday(loc)

	require.NoError(t, o.Arm(b))
	require.Equal(t, 5, sched.Pending())

	next := time.Date(2031, time.May, 15, 9, 0, 0, 0, loc)
	wantDue := map[string]time.Time{
		JobID(200, "Anna", Kind3Days):           next.AddDate(0, 0, -3),
		JobID(200, "Anna", Kind1Day):            next.AddDate(0, 0, -1),
		JobID(200, "Anna", KindDayNotification): next,
		JobID(200, "Anna", KindDayCongrats):     next.Add(2 * time.Second),
		JobID(200, "Anna", KindAnnual):          time.Date(2032, time.May, 16, 9, 0, 0, 0, loc),
	}
	for id, want := range wantDue {
		due, ok := sched.Due(id)
		require.True(t, ok, "job %s not registered", id)
		assert.True(t, due.Equal(want), "job %s: want due %s, got %s", id, want, due)
	}
}

func TestArm_DisabledFlagYieldsComplementarySet(t *testing.T) {
	o, _, _, sched, loc := newTestOrchestrator(t)
	b := annaBirthday(loc)
	b.Remind3Days = false

	require.NoError(t, o.Arm(b))
	assert.Equal(t, 4, sched.Pending())
	_, ok := sched.Due(JobID(200, "Anna", Kind3Days))
	assert.False(t, ok)
}

func TestArm_DayFlagControlsBothDayJobs(t *testing.T) {
	o, _, _, sched, loc := newTestOrchestrator(t)
	b := annaBirthday(loc)
	b.RemindDay = false

	require.NoError(t, o.Arm(b))
	assert.Equal(t, 3, sched.Pending())
	_, ok := sched.Due(JobID(200, "Anna", KindDayNotification))
	assert.False(t, ok)
	_, ok = sched.Due(JobID(200, "Anna", KindDayCongrats))
	assert.False(t, ok)
}

func TestArm_TwiceLeavesNoDuplicates(t *testing.T) {
	o, _, _, sched, loc := newTestOrchestrator(t)
	b := annaBirthday(loc)

	require.NoError(t, o.Arm(b))
	require.NoError(t, o.Arm(b))
	assert.Equal(t, 5, sched.Pending())
}

func TestDisarm_RemovesAllJobsAndIsIdempotent(t *testing.T) {
	o, _, _, sched, loc := newTestOrchestrator(t)
	b := annaBirthday(loc)
	require.NoError(t, o.Arm(b))

	o.Disarm(200, "Anna")
	assert.Equal(t, 0, sched.Pending())

	o.Disarm(200, "Anna") // second call must not blow up
	assert.Equal(t, 0, sched.Pending())
}

func TestDisarmOne(t *testing.T) {
	o, _, _, sched, loc := newTestOrchestrator(t)
	b := annaBirthday(loc)
	require.NoError(t, o.Arm(b))

	o.DisarmOne(200, "Anna", Kind1Day)
	assert.Equal(t, 4, sched.Pending())
	_, ok := sched.Due(JobID(200, "Anna", Kind1Day))
	assert.False(t, ok)
}

func TestRearm_AfterFlagToggleAndTimeChange(t *testing.T) {
	o, _, _, sched, loc := newTestOrchestrator(t)
	b := annaBirthday(loc)
	require.NoError(t, o.Arm(b))

	b.Remind1Day = false
	b.ReminderHour = 18
	b.ReminderMinute = 30
	require.NoError(t, o.Rearm(b))

	assert.Equal(t, 4, sched.Pending())
	_, ok := sched.Due(JobID(200, "Anna", Kind1Day))
	assert.False(t, ok)

	due, ok := sched.Due(JobID(200, "Anna", KindDayNotification))
	require.True(t, ok)
	want := time.Date(2031, time.May, 15, 18, 30, 0, 0, loc)
	assert.True(t, due.Equal(want), "want %s, got %s", want, due)
}

func TestRehydrate_ArmsEveryStoredSubscription(t *testing.T) {
	o, repo, _, sched, loc := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, annaBirthday(loc)))
	other := annaBirthday(loc)
	other.OwnerID = 101
	other.ChatID = 201
	other.Name = "Boris"
	other.Remind3Days = false
	require.NoError(t, repo.Create(ctx, other))

	n, err := o.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 9, sched.Pending())
}

func TestFireDayNotification_ReadsFreshSettings(t *testing.T) {
	o, repo, sender, _, loc := newTestOrchestrator(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, annaBirthday(loc)))

	// Username edited after arming; the fired message must use the new one.
	require.NoError(t, repo.UpdateUsername(ctx, 100, "Anna", "anna_new"))

	o.fireDayNotification(ctx, 200, "Anna")
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Today is Anna's birthday")
	assert.Contains(t, msgs[0], "@anna_new")
}

func TestFireCongrats_UsesComposerAndDescription(t *testing.T) {
	o, repo, sender, _, loc := newTestOrchestrator(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, annaBirthday(loc)))

	o.fireCongrats(ctx, 200, "Anna")
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "congrats Anna / loves cats")
	assert.Contains(t, msgs[0], "send this message to Anna")
}

func TestFire_DeletedSubscriptionStaysSilent(t *testing.T) {
	o, _, sender, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	o.fireDayNotification(ctx, 200, "Anna")
	o.fireCongrats(ctx, 200, "Anna")
	o.fireAnnual(ctx, 200, "Anna")
	assert.Empty(t, sender.messages())
}

func TestFireAnnual_RearmsWithStoredSettings(t *testing.T) {
	o, repo, _, sched, loc := newTestOrchestrator(t)
	ctx := context.Background()

	b := annaBirthday(loc)
	b.Remind3Days = false
	require.NoError(t, repo.Create(ctx, b))

	o.fireAnnual(ctx, 200, "Anna")
	assert.Equal(t, 4, sched.Pending())
}

func TestFire_DeliveryFailureIsSwallowed(t *testing.T) {
	o, repo, sender, _, loc := newTestOrchestrator(t)
	ctx := context.Background()
	sender.err = fmt.Errorf("telegram down")
	require.NoError(t, repo.Create(ctx, annaBirthday(loc)))

	// Must not panic; the error is logged and dropped.
	o.fireDayNotification(ctx, 200, "Anna")
	require.Len(t, sender.messages(), 1)
}

func TestReconcile_HealsMissingAnnualJob(t *testing.T) {
	o, repo, _, sched, loc := newTestOrchestrator(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, annaBirthday(loc)))

	// Chain intact: nothing to do.
	n, err := o.Rehydrate(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	o.Reconcile(ctx)
	assert.Equal(t, 5, sched.Pending())

	// Simulate a lost chain.
	o.Disarm(200, "Anna")
	require.Equal(t, 0, sched.Pending())
	o.Reconcile(ctx)
	assert.Equal(t, 5, sched.Pending())
}

func TestJobID(t *testing.T) {
	assert.Equal(t, "200_Anna_3d", JobID(200, "Anna", Kind3Days))
}
