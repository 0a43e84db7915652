package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), loc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleBirthday(loc *time.Location) *domain.Birthday {
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

func TestCreateAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	b := sampleBirthday(repo.loc)
	require.NoError(t, repo.Create(ctx, b))
	assert.NotZero(t, b.ID)

	got, err := repo.GetByOwner(ctx, 100, "Anna")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
	assert.True(t, got.Birthdate.Equal(b.Birthdate))
	assert.Equal(t, 9, got.ReminderHour)
	assert.True(t, got.Remind3Days)
	assert.Equal(t, "loves cats", got.Description)

	byChat, err := repo.GetByChat(ctx, 200, "Anna")
	require.NoError(t, err)
	assert.Equal(t, got.ID, byChat.ID)
}

func TestCreate_DuplicateOwnerName(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBirthday(repo.loc)))
	err := repo.Create(ctx, sampleBirthday(repo.loc))
	assert.ErrorIs(t, err, ErrDuplicate)

	// Same name under a different owner is fine.
	other := sampleBirthday(repo.loc)
	other.OwnerID = 101
	other.ChatID = 201
	assert.NoError(t, repo.Create(ctx, other))
}

func TestGet_NotFound(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.GetByOwner(context.Background(), 1, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByChat(context.Background(), 1, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByOwner_OrderedByCalendarDay(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	dec := sampleBirthday(repo.loc)
	dec.Name = "December"
	dec.Birthdate = time.Date(1985, time.December, 3, 0, 0, 0, 0, repo.loc)
	require.NoError(t, repo.Create(ctx, dec))

	mar := sampleBirthday(repo.loc)
	mar.Name = "March"
	mar.Birthdate = time.Date(1999, time.March, 20, 0, 0, 0, 0, repo.loc)
	require.NoError(t, repo.Create(ctx, mar))

	list, err := repo.ListByOwner(ctx, 100)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "March", list[0].Name)
	assert.Equal(t, "December", list[1].Name)
}

func TestListAll(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBirthday(repo.loc)))
	other := sampleBirthday(repo.loc)
	other.OwnerID = 300
	require.NoError(t, repo.Create(ctx, other))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdates(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleBirthday(repo.loc)))

	require.NoError(t, repo.UpdateReminderTime(ctx, 100, "Anna", 18, 30))
	require.NoError(t, repo.UpdateFlags(ctx, 100, "Anna", false, true, true))
	require.NoError(t, repo.UpdateUsername(ctx, 100, "Anna", "anna_new"))

	got, err := repo.GetByOwner(ctx, 100, "Anna")
	require.NoError(t, err)
	assert.Equal(t, 18, got.ReminderHour)
	assert.Equal(t, 30, got.ReminderMinute)
	assert.False(t, got.Remind3Days)
	assert.True(t, got.Remind1Day)
	assert.Equal(t, "anna_new", got.Username)

	assert.ErrorIs(t, repo.UpdateReminderTime(ctx, 100, "nobody", 9, 0), ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleBirthday(repo.loc)))

	require.NoError(t, repo.Delete(ctx, 100, "Anna"))
	_, err := repo.GetByOwner(ctx, 100, "Anna")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, 100, "Anna"), ErrNotFound)
}
