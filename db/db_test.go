package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitstatviewer/models"
)

// setupTestDB creates a new test database connection with a mock
func setupTestDB(t *testing.T) (*DB, sqlmock.Sqlmock, func()) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(conn, "sqlmock")
	database := &DB{conn: sqlxDB}

	cleanup := func() {
		database.Close()
		conn.Close()
	}

	return database, mock, cleanup
}

func TestExists(t *testing.T) {
	tests := []struct {
		name        string
		sha         string
		mockSetup   func(sqlmock.Sqlmock)
		expected    bool
		expectedErr error
	}{
		{
			name: "commit present",
			sha:  "abc123",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("abc123").
					WillReturnRows(rows)
			},
			expected: true,
		},
		{
			name: "commit absent",
			sha:  "def456",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"exists"}).AddRow(false)
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("def456").
					WillReturnRows(rows)
			},
			expected: false,
		},
		{
			name:        "empty sha",
			sha:         "",
			mockSetup:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			result, err := database.Exists(context.Background(), tt.sha)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsert(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testCommit := models.Commit{
		SHA:           "abc123",
		RepositoryKey: "octo/repo",
		AuthorName:    "Test Author",
		Date:          now,
		Additions:     10,
		Deletions:     2,
	}

	tests := []struct {
		name        string
		commit      models.Commit
		mockSetup   func(sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name:   "new commit inserted",
			commit: testCommit,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO commits").
					WithArgs("abc123", "octo/repo", "Test Author", now, 10, 2).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			// ON CONFLICT DO NOTHING: zero rows affected is still success.
			name:   "duplicate sha is a no-op",
			commit: testCommit,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO commits").
					WithArgs("abc123", "octo/repo", "Test Author", now, 10, 2).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name:        "missing sha",
			commit:      models.Commit{RepositoryKey: "octo/repo"},
			mockSetup:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidInput,
		},
		{
			name:        "missing repository key",
			commit:      models.Commit{SHA: "abc123"},
			mockSetup:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			err := database.Insert(context.Background(), tt.commit)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListByRepository(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns stored commits in date order", func(t *testing.T) {
		database, mock, cleanup := setupTestDB(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{
			"id", "sha", "repository_key", "author_name", "date", "additions", "deletions", "created_at",
		}).
			AddRow(1, "abc123", "octo/repo", "Alice", now, 10, 2, now).
			AddRow(2, "def456", "octo/repo", "Bob", now.Add(time.Hour), 4, 1, now)
		mock.ExpectQuery("SELECT id, sha, repository_key").
			WithArgs("octo/repo").
			WillReturnRows(rows)

		commits, err := database.ListByRepository(context.Background(), "octo/repo")
		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, "abc123", commits[0].SHA)
		assert.Equal(t, "Bob", commits[1].AuthorName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty repository key", func(t *testing.T) {
		database, _, cleanup := setupTestDB(t)
		defer cleanup()

		_, err := database.ListByRepository(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("query failure", func(t *testing.T) {
		database, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT id, sha, repository_key").
			WithArgs("octo/repo").
			WillReturnError(assert.AnError)

		_, err := database.ListByRepository(context.Background(), "octo/repo")
		assert.Error(t, err)
	})
}

func TestMigrate(t *testing.T) {
	database, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS commits").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := database.Migrate(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateFailure(t *testing.T) {
	database, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS commits").
		WillReturnError(assert.AnError)

	err := database.Migrate(context.Background())
	assert.ErrorIs(t, err, ErrMigrationFailed)
}
