package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}

	mock.ExpectExec("INSERT INTO users").
		WithArgs("local:1", "ann@example.com", nil, nil, nil, nil, "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err = repo.Create(context.Background(), User{ID: "local:1", Email: "ann@example.com", PasswordHash: "hash"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPGRepoGetByEmailIsCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "full_name", "given_name", "family_name", "picture_url", "password_hash", "created_at", "updated_at",
		}).AddRow("local:1", "ann@example.com", "Ann Lee", nil, nil, nil, "hash", now, now))

	user, err := repo.GetByEmail(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.FullName != "Ann Lee" || user.PasswordHash != "hash" || user.GivenName != "" {
		t.Fatalf("unexpected user %+v", user)
	}

	mock.ExpectQuery("WHERE id = ").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
