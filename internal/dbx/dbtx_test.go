package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var dbSeq atomic.Int64

// openFolders opens a private in-memory database holding a folders table
// shaped like the production one.
func openFolders(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:folders%d?mode=memory&cache=shared", dbSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE folders (
		folder_id TEXT PRIMARY KEY,
		user_id   TEXT NOT NULL,
		path      TEXT NOT NULL,
		UNIQUE (user_id, path)
	)`)
	require.NoError(t, err)
	return db
}

func insertFolder(ctx context.Context, tx DBTX, id, path string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO folders (folder_id, user_id, path) VALUES (?, 'u1', ?)`, id, path)
	return err
}

func folderPaths(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT path FROM folders ORDER BY path`)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		require.NoError(t, rows.Scan(&p))
		out = append(out, p)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestWithTx(t *testing.T) {
	errAbort := errors.New("abort")

	tests := []struct {
		name      string
		fn        func(ctx context.Context, tx DBTX) error
		wantErr   error
		wantPanic bool
		want      []string
	}{
		{
			name: "root and child commit together",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertFolder(ctx, tx, "r", "/"); err != nil {
					return err
				}
				return insertFolder(ctx, tx, "a", "/A")
			},
			want: []string{"/", "/A"},
		},
		{
			name: "returned error discards earlier writes",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertFolder(ctx, tx, "r", "/"); err != nil {
					return err
				}
				return errAbort
			},
			wantErr: errAbort,
		},
		{
			name: "duplicate path discards the whole unit",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertFolder(ctx, tx, "a1", "/A"); err != nil {
					return err
				}
				return insertFolder(ctx, tx, "a2", "/A")
			},
		},
		{
			name: "panic discards writes and propagates",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertFolder(ctx, tx, "r", "/"); err != nil {
					return err
				}
				panic("half-written tree")
			},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openFolders(t)
			run := func() error { return WithTx(context.Background(), db, nil, tt.fn) }

			if tt.wantPanic {
				assert.Panics(t, func() { _ = run() })
				assert.Empty(t, folderPaths(t, db))
				return
			}

			err := run()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.want == nil:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, folderPaths(t, db))
		})
	}
}

func TestWithTx_ClosedDB(t *testing.T) {
	db := openFolders(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called, "fn must not run without a transaction")
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
