package models

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"places/apperr"
	"places/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	gdb, err := db.Open("", filepath.Join(t.TempDir(), "places.db"), false)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewRepo(gdb)
}

func createUser(t *testing.T, r *Repo, email string) *User {
	t.Helper()
	u := &User{
		Name:          "User " + email,
		Email:         email,
		Password:      "digest",
		ImagePath:     "uploads/images/a.png",
		ImageFilename: "a.png",
	}
	require.NoError(t, r.CreateUser(context.Background(), u, nil))
	return u
}

func createPlace(t *testing.T, r *Repo, creatorID uint64, title string) *Place {
	t.Helper()
	p := &Place{
		Title:       title,
		Description: "A nice place",
		Image:       "uploads/images/" + title + ".png",
		Address:     "20 W 34th St, New York",
	}
	p.SetLocation(40.7484405, -73.9878584)
	require.NoError(t, r.CreatePlace(context.Background(), p, creatorID, nil))
	return p
}

// assertPlaceListConsistent checks the user_places rows of userID match its places
func assertPlaceListConsistent(t *testing.T, r *Repo, userID uint64) {
	t.Helper()
	u, err := r.FindUserByID(context.Background(), userID)
	require.NoError(t, err)
	places, err := r.FindPlacesByCreator(context.Background(), userID)
	require.NoError(t, err)

	want := []uint64{}
	for _, p := range places {
		want = append(want, p.ID)
	}
	assert.ElementsMatch(t, want, u.PlaceIDs())
}

func countRows(t *testing.T, r *Repo, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(model).Count(&n).Error)
	return n
}

func TestCreateUser(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	u := createUser(t, r, "  A@X.com ")
	assert.NotZero(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)

	taken, err := r.EmailTaken(ctx, "a@x.COM")
	require.NoError(t, err)
	assert.True(t, taken)

	dup := &User{Name: "B", Email: "A@x.com", Password: "digest", ImagePath: "p", ImageFilename: "f"}
	err = r.CreateUser(ctx, dup, nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, dup.ID)
	assert.EqualValues(t, 1, countRows(t, r, &User{}))
}

func TestCreateUserCommitFailure(t *testing.T) {
	r := newTestRepo(t)
	u := &User{Name: "A", Email: "a@x.com", Password: "digest", ImagePath: "p", ImageFilename: "f"}

	err := r.CreateUser(context.Background(), u, func() error { return errors.New("disk full") })
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.EqualValues(t, 0, countRows(t, r, &User{}))
}

func TestFindUserByEmail(t *testing.T) {
	r := newTestRepo(t)
	created := createUser(t, r, "a@x.com")

	u, err := r.FindUserByEmail(context.Background(), "A@X.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = r.FindUserByEmail(context.Background(), "nobody@x.com")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListUsersOmitsPassword(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	users, err := r.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	a := createUser(t, r, "a@x.com")
	createUser(t, r, "b@x.com")
	p := createPlace(t, r, a.ID, "Empire")

	users, err = r.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}
	assert.Equal(t, []uint64{p.ID}, users[0].PlaceIDs())
	assert.Empty(t, users[1].PlaceIDs())
}

func TestCreatePlace(t *testing.T) {
	r := newTestRepo(t)
	u := createUser(t, r, "a@x.com")

	p := createPlace(t, r, u.ID, "Empire")
	assert.NotZero(t, p.ID)
	assert.Equal(t, u.ID, p.CreatorID)
	assert.Equal(t, "America/New_York", p.TimeZone)

	got, err := r.FindPlaceByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Empire", got.Title)
	assertPlaceListConsistent(t, r, u.ID)
}

func TestCreatePlaceUnknownCreator(t *testing.T) {
	r := newTestRepo(t)
	p := &Place{Title: "T", Description: "Desc.", Image: "i", Address: "a"}

	err := r.CreatePlace(context.Background(), p, 42, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.EqualValues(t, 0, countRows(t, r, &Place{}))
}

func TestCreatePlaceRollsBackWhenPlaceListWriteFails(t *testing.T) {
	r := newTestRepo(t)
	u := createUser(t, r, "a@x.com")

	err := r.DB.Callback().Create().Before("gorm:create").Register("test:fail_user_places", func(tx *gorm.DB) {
		if tx.Statement.Table == "user_places" {
			_ = tx.AddError(errors.New("injected failure"))
		}
	})
	require.NoError(t, err)

	p := &Place{Title: "T", Description: "Desc.", Image: "i", Address: "a"}
	err = r.CreatePlace(context.Background(), p, u.ID, nil)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Zero(t, p.ID)
	assert.EqualValues(t, 0, countRows(t, r, &Place{}))
	assert.EqualValues(t, 0, countRows(t, r, &UserPlace{}))
}

func TestCreatePlaceRollsBackWhenCommitHookFails(t *testing.T) {
	r := newTestRepo(t)
	u := createUser(t, r, "a@x.com")
	called := false

	p := &Place{Title: "T", Description: "Desc.", Image: "i", Address: "a"}
	err := r.CreatePlace(context.Background(), p, u.ID, func() error {
		called = true
		return errors.New("upload failed")
	})
	assert.True(t, called)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.EqualValues(t, 0, countRows(t, r, &Place{}))
	assert.EqualValues(t, 0, countRows(t, r, &UserPlace{}))
}

func TestDeletePlace(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := createUser(t, r, "a@x.com")
	b := createUser(t, r, "b@x.com")
	p := createPlace(t, r, a.ID, "Empire")

	t.Run("non owner", func(t *testing.T) {
		_, err := r.DeletePlace(ctx, p.ID, b.ID)
		assert.ErrorIs(t, err, ErrPlaceDeleteDenied)
		_, err = r.FindPlaceByID(ctx, p.ID)
		assert.NoError(t, err)
		assertPlaceListConsistent(t, r, a.ID)
		assertPlaceListConsistent(t, r, b.ID)
	})

	t.Run("owner", func(t *testing.T) {
		deleted, err := r.DeletePlace(ctx, p.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Image, deleted.Image)
		assert.Equal(t, a.ID, deleted.Creator.ID)

		_, err = r.FindPlaceByID(ctx, p.ID)
		assert.ErrorIs(t, err, ErrPlaceNotFound)
		places, err := r.FindPlacesByCreator(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, places)
		assertPlaceListConsistent(t, r, a.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.DeletePlace(ctx, p.ID, a.ID)
		assert.ErrorIs(t, err, ErrPlaceNotFound)
	})
}

func TestDeletePlaceRollsBackWhenPlaceListWriteFails(t *testing.T) {
	r := newTestRepo(t)
	u := createUser(t, r, "a@x.com")
	p := createPlace(t, r, u.ID, "Empire")

	err := r.DB.Callback().Delete().Before("gorm:delete").Register("test:fail_user_places", func(tx *gorm.DB) {
		if tx.Statement.Table == "user_places" {
			_ = tx.AddError(errors.New("injected failure"))
		}
	})
	require.NoError(t, err)

	_, err = r.DeletePlace(context.Background(), p.ID, u.ID)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	_, err = r.FindPlaceByID(context.Background(), p.ID)
	assert.NoError(t, err)
	assertPlaceListConsistent(t, r, u.ID)
}

func TestUpdatePlace(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := createUser(t, r, "a@x.com")
	b := createUser(t, r, "b@x.com")
	p := createPlace(t, r, a.ID, "Empire")

	_, err := r.UpdatePlace(ctx, p.ID, b.ID, "Hijacked", "Not mine at all")
	assert.ErrorIs(t, err, ErrPlaceEditDenied)

	updated, err := r.UpdatePlace(ctx, p.ID, a.ID, "Empire State", "Tall building")
	require.NoError(t, err)
	assert.Equal(t, "Empire State", updated.Title)

	got, err := r.FindPlaceByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Empire State", got.Title)
	assert.Equal(t, "Tall building", got.Description)
	assert.Equal(t, p.Address, got.Address)

	_, err = r.UpdatePlace(ctx, 999, a.ID, "x", "xxxxx")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestFindPlacesByCreatorEmpty(t *testing.T) {
	r := newTestRepo(t)
	places, err := r.FindPlacesByCreator(context.Background(), 12345)
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)
}
