package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gradelab/examlink/internal/model"
)

// fakeRoster matches the way the pg-backed roster does: digits-exact phone,
// case-insensitive name.
type fakeRoster struct {
	students []model.Student
}

func (f *fakeRoster) FindByNameAndPhone(_ context.Context, name, phoneDigits string) (*model.Student, error) {
	for i := range f.students {
		s := &f.students[i]
		if phoneDigits == onlyDigits(s.Phone) && strings.EqualFold(name, s.Name) {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestVerifyMatches(t *testing.T) {
	roster := &fakeRoster{students: []model.Student{
		{ID: 7, Name: "Kim Jiwoo", Phone: "010-1234-5678"},
	}}
	v := NewIdentityVerifier(roster)
	keyID := uuid.New()

	cases := []struct {
		name  string
		phone string
	}{
		{"Kim Jiwoo", "010-1234-5678"},
		{"kim jiwoo", "01012345678"},
		{"  Kim Jiwoo  ", "010 1234 5678"},
	}
	for _, c := range cases {
		got, err := v.Verify(context.Background(), keyID, c.name, c.phone)
		if err != nil {
			t.Errorf("Verify(%q, %q) error = %v, want match", c.name, c.phone, err)
			continue
		}
		if got.ID != 7 {
			t.Errorf("Verify(%q, %q) = student %d, want 7", c.name, c.phone, got.ID)
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	roster := &fakeRoster{students: []model.Student{
		{ID: 7, Name: "Kim Jiwoo", Phone: "010-1234-5678"},
	}}
	v := NewIdentityVerifier(roster)
	keyID := uuid.New()

	cases := []struct {
		name  string
		phone string
	}{
		{"Kim Jiwoo", "010-1234-5679"}, // wrong phone
		{"Lee Jiwoo", "010-1234-5678"}, // wrong name
		{"", "010-1234-5678"},
		{"Kim Jiwoo", ""},
		{"Kim Jiwoo", "---"}, // no digits at all
	}
	for _, c := range cases {
		_, err := v.Verify(context.Background(), keyID, c.name, c.phone)
		if !errors.Is(err, ErrIdentityMismatch) {
			t.Errorf("Verify(%q, %q) error = %v, want ErrIdentityMismatch", c.name, c.phone, err)
		}
	}
}
