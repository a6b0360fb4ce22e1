package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStorageMemory(t *testing.T) {
	got := NewService(nil).Storage(context.Background())
	if got.Storage != "memory" || !got.Connected {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestStoragePostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	got := NewService(db).Storage(context.Background())
	if got.Storage != "postgres" || !got.Connected {
		t.Fatalf("unexpected status %+v", got)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	got = NewService(db).Storage(context.Background())
	if got.Connected || got.Error == "" {
		t.Fatalf("expected failed ping to be reported, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
