package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sparkdrive/internal/server/migrations"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/folders"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/shares"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager()

	if r := m.Folders(db); r == nil {
		t.Fatal("Folders() nil")
	}
	if r := m.Files(db); r == nil {
		t.Fatal("Files() nil")
	}
	if r := m.Shares(db); r == nil {
		t.Fatal("Shares() nil")
	}

	var _ folders.Repository = m.Folders(db)
	var _ files.Repository = m.Files(db)
	var _ shares.Repository = m.Shares(db)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestMigrations_Embedded(t *testing.T) {
	b, err := migrations.Migrations.ReadFile("00001_init.sql")
	if err != nil {
		t.Fatalf("embedded migration missing: %v", err)
	}
	for _, table := range []string{"folders", "files", "file_shares"} {
		if !strings.Contains(string(b), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("migration does not create %s", table)
		}
	}
	if !strings.Contains(string(b), "user_id    TEXT NOT NULL,\n    file_id    UUID NOT NULL,") {
		t.Fatal("file_shares does not record the issuing user")
	}
}

