package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	selectSQL = `SELECT value FROM cart_snapshots WHERE key=$1`
	upsertSQL = `
		INSERT INTO cart_snapshots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
)

func TestPostgresGet_FoundAndMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	s := &PostgresStore{DB: db}
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("@RocketShoes:cart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":1,"amount":2}]`))

	got, err := s.Get(ctx, "@RocketShoes:cart")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[{"id":1,"amount":2}]` {
		t.Fatalf("unexpected value: %s", got)
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGet_DriverError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("k").
		WillReturnError(boom)

	_, err := s.Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSet_Upserts(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(upsertSQL)).
		WithArgs("@RocketShoes:cart", `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(context.Background(), "@RocketShoes:cart", []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(upsertSQL)).
		WithArgs("@RocketShoes:cart", `[{"id":3}]`).
		WillReturnError(errors.New("read-only transaction"))

	if err := s.Set(context.Background(), "@RocketShoes:cart", []byte(`[{"id":3}]`)); err == nil {
		t.Fatalf("expected error from failed upsert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresMigrate(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS cart_snapshots`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
