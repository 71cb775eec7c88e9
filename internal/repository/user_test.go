package repository

import (
	"context"
	"errors"
	"testing"

	"mundotango/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func(mock sqlmock.Sqlmock)
		expectedCode int
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).AddRow(1, "ana", "ana@example.com")
				mock.ExpectQuery(quote(`SELECT * FROM "users" WHERE "users"."id" = $1 AND "users"."deleted_at" IS NULL ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(quote(`SELECT * FROM "users" WHERE "users"."id" = $1 AND "users"."deleted_at" IS NULL ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expectedCode: 404,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(quote(`SELECT * FROM "users"`)).WillReturnError(errors.New("connection reset"))
			},
			expectedCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewUserRepository(db, nil)
			tt.mockBehavior(mock)

			user, err := repo.GetByID(ctx, tt.userID)
			if tt.expectedCode != 0 {
				assert.Equal(t, tt.expectedCode, models.StatusFor(err))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ana", user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByIDIsCached(t *testing.T) {
	db, mock := setupMockDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	repo := NewUserRepository(db, rdb)
	ctx := context.Background()

	mock.ExpectQuery(quote(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(3, "carlos"))

	first, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, first.Username, second.Username)
	assert.True(t, mr.Exists("user:3"))
	assert.NoError(t, mock.ExpectationsWereMet())

	repo.Invalidate(ctx, 3)
	assert.False(t, mr.Exists("user:3"))
}

func TestUserRepository_GetByEmailMissingReturnsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(quote(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByEmail(context.Background(), " Nobody@Example.com ")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_SearchByPrefix(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	for _, u := range []models.User{
		{Name: "Ana Lopez", Username: "analopez", Email: "a@x.io", IsActive: true},
		{Name: "Andres", Username: "andres_t", Email: "b@x.io", IsActive: true},
		{Name: "Bruno", Username: "bruno", Email: "c@x.io", IsActive: true},
		{Name: "Anabel", Username: "anabel", Email: "d@x.io", IsActive: false},
	} {
		u := u
		require.NoError(t, repo.Create(ctx, &u))
	}
	// GORM skips zero-valued bools with a default tag; force the inactive row.
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "anabel").Update("is_active", false).Error)

	found, err := repo.SearchByPrefix(ctx, "An", 10)
	require.NoError(t, err)
	names := []string{}
	for _, u := range found {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"analopez", "andres_t"}, names)

	found, err = repo.SearchByPrefix(ctx, "_", 10)
	require.NoError(t, err)
	assert.Empty(t, found, "LIKE wildcards are escaped")
}
