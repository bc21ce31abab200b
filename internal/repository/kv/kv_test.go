package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewStore(rdb, "")
}

func reading(user uuid.UUID, value int, date string, ts time.Time) *model.Reading {
	return &model.Reading{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    user,
		Value:     value,
		Date:      date,
		Timestamp: ts,
	}
}

func TestReadingRepo_InsertListOrder(t *testing.T) {
	mr, s := setupStore(t)
	r := NewReadingRepo(s)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	older := reading(user, 300, "2024-03-01", base)
	newer := reading(user, 410, "2024-03-02", base.Add(24*time.Hour))
	newer.Condition = model.IntPtr(9)
	require.NoError(t, r.Insert(ctx, older))
	require.NoError(t, r.Insert(ctx, newer))

	assert.True(t, mr.Exists("peakflow:"+user.String()+":readings"))

	out, err := r.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, newer.ID, out[0].ID)
	assert.Equal(t, 9, *out[0].Condition)
	assert.Equal(t, older.ID, out[1].ID)
	assert.True(t, out[1].Timestamp.Equal(base))

	require.ErrorIs(t, r.Insert(ctx, older), errs.ErrAlreadyExists)
}

func TestReadingRepo_Delete(t *testing.T) {
	_, s := setupStore(t)
	r := NewReadingRepo(s)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())
	rd := reading(user, 300, "2024-03-01", time.Now())
	require.NoError(t, r.Insert(ctx, rd))

	require.NoError(t, r.Delete(ctx, user, rd.ID))
	require.ErrorIs(t, r.Delete(ctx, user, rd.ID), errs.ErrNotFound)

	out, err := r.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestReadingRepo_DeleteByDate(t *testing.T) {
	_, s := setupStore(t)
	r := NewReadingRepo(s)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())
	now := time.Now()

	a := reading(user, 300, "2024-03-01", now)
	b := reading(user, 320, "2024-03-01", now.Add(time.Minute))
	c := reading(user, 340, "2024-03-02", now.Add(time.Hour))
	for _, rd := range []*model.Reading{a, b, c} {
		require.NoError(t, r.Insert(ctx, rd))
	}

	ids, err := r.DeleteByDate(ctx, user, "2024-03-01")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)

	out, err := r.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, c.ID, out[0].ID)

	ids, err = r.DeleteByDate(ctx, user, "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReadingRepo_ReplaceDay(t *testing.T) {
	_, s := setupStore(t)
	r := NewReadingRepo(s)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())
	now := time.Now()

	a := reading(user, 300, "2024-03-01", now)
	b := reading(user, 340, "2024-03-02", now.Add(time.Hour))
	require.NoError(t, r.Insert(ctx, a))
	require.NoError(t, r.Insert(ctx, b))

	c := reading(user, 360, "2024-03-01", now.Add(2*time.Hour))
	ids, err := r.ReplaceDay(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids)

	out, err := r.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, c.ID, out[0].ID)
	assert.Equal(t, b.ID, out[1].ID)

	_, err = r.ReplaceDay(ctx, c)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	out, err = r.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestReadingRepo_ReplaceDay_ServerError(t *testing.T) {
	mr, s := setupStore(t)
	r := NewReadingRepo(s)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())
	a := reading(user, 300, "2024-03-01", time.Now())
	require.NoError(t, r.Insert(ctx, a))

	mr.SetError("ERR store offline")
	_, err := r.ReplaceDay(ctx, reading(user, 360, "2024-03-01", time.Now()))
	require.Error(t, err)
	mr.SetError("")

	out, err := r.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, a.ID, out[0].ID)
}

func TestReadingRepo_UsersAreIsolated(t *testing.T) {
	_, s := setupStore(t)
	r := NewReadingRepo(s)
	ctx := context.Background()
	u1, u2 := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	require.NoError(t, r.Insert(ctx, reading(u1, 300, "2024-03-01", time.Now())))

	out, err := r.ListByUser(ctx, u2)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSettingsRepo_GetUpsert(t *testing.T) {
	_, s := setupStore(t)
	r := NewSettingsRepo(s)
	ctx := context.Background()
	user := uuid.Must(uuid.NewV4())

	_, err := r.Get(ctx, user)
	require.ErrorIs(t, err, errs.ErrNotFound)

	want := model.Settings{Threshold: 250, DefaultMorningDose: model.IntPtr(2), Name: "Ann"}
	require.NoError(t, r.Upsert(ctx, user, want))

	got, err := r.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	want2 := model.Settings{Threshold: 400}
	require.NoError(t, r.Upsert(ctx, user, want2))
	got, err = r.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, want2, *got)
}

func TestStore_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s := NewStore(rdb, "test")
	user := uuid.Must(uuid.NewV4())

	require.NoError(t, NewSettingsRepo(s).Upsert(context.Background(), user, model.Settings{Threshold: 1}))
	assert.True(t, mr.Exists("test:"+user.String()+":settings"))
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := Dial(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	mr.Close()
	_, err = Dial(context.Background(), mr.Addr(), "", 0)
	require.Error(t, err)
}
