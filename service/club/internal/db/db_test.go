package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}

	if !IsUniqueViolation(dup) {
		t.Fatalf("expected 23505 to be a unique violation")
	}
	if !IsUniqueViolation(fmt.Errorf("insert membership: %w", dup)) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("connection reset")) || IsUniqueViolation(nil) {
		t.Fatalf("expected plain and nil errors to be rejected")
	}
}
