package store

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"storefront/model"
)

const (
	selectQuery = `SELECT value FROM kv_state WHERE key=$1`
	upsertQuery = `
		INSERT INTO kv_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
)

func TestLoadCart_AbsentIsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	s := &PostgresStore{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("cart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	cart, err := s.LoadCart()
	if err != nil {
		t.Fatalf("LoadCart failed: %v", err)
	}
	if len(cart) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(cart))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadCart_InvalidJSONIsEmpty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("cart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{not json`)))

	cart, err := s.LoadCart()
	if err != nil {
		t.Fatalf("LoadCart failed: %v", err)
	}
	if len(cart) != 0 {
		t.Fatalf("expected empty cart for corrupt state, got %d items", len(cart))
	}
}

func TestLoadCart_RoundTrip(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("cart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).
			AddRow([]byte(`[{"id":"a","name":"Ração","price":"50","quantity":2}]`)))

	cart, err := s.LoadCart()
	if err != nil {
		t.Fatalf("LoadCart failed: %v", err)
	}
	if len(cart) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart))
	}
	it := cart[0]
	if it.ID != "a" || it.Name != "Ração" || it.Quantity != 2 {
		t.Fatalf("unexpected item: %+v", it)
	}
	if !it.UnitPrice.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected price: %s", it.UnitPrice)
	}
}

func TestSaveCart_Upsert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("cart", []byte(`[{"id":"a","name":"Ração","price":"50","quantity":1}]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cart := model.Cart{{ID: "a", Name: "Ração", UnitPrice: decimal.NewFromInt(50), Quantity: 1}}
	if err := s.SaveCart(cart); err != nil {
		t.Fatalf("SaveCart failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveCart_NilBecomesEmptyArray(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("cart", []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SaveCart(nil); err != nil {
		t.Fatalf("SaveCart failed: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := &PostgresStore{DB: db}

	// absent -> guest
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("currentUser").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	sess, err := s.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected guest state, got %+v", sess)
	}

	// save
	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("currentUser", []byte(`{"name":"bob","email":"bob@example.com","avatar":"B"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.SaveSession(model.SessionForEmail("bob@example.com")); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// load back
	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("currentUser").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).
			AddRow([]byte(`{"name":"bob","email":"bob@example.com","avatar":"B"}`)))
	sess, err = s.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if sess == nil || sess.DisplayName != "bob" || sess.AvatarInitial != "B" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// clear
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_state WHERE key=$1`)).
		WithArgs("currentUser").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.ClearSession(); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
