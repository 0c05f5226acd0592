package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gradelab/examlink/internal/model"
)

// Roster is the external student directory this subsystem matches claimed
// identities against. The production implementation is the pg-backed
// repository.StudentRepository.
type Roster interface {
	FindByNameAndPhone(ctx context.Context, name, phoneDigits string) (*model.Student, error)
}

// IdentityVerifier matches a claimed student identity (name + phone) against
// the roster. Pure lookup: no lockout and no side effects — rate limiting for
// repeated wrong guesses belongs to the web boundary.
type IdentityVerifier struct {
	roster Roster
}

// NewIdentityVerifier creates a new IdentityVerifier.
func NewIdentityVerifier(roster Roster) *IdentityVerifier {
	return &IdentityVerifier{roster: roster}
}

// Verify resolves the claimed identity to a stable roster entry. Phone is the
// primary discriminant since names collide: it is compared digit-for-digit
// with separators stripped, while the name comparison is case-insensitive.
// The answer key id is accepted for future per-key rosters but the roster is
// academy-wide today.
func (v *IdentityVerifier) Verify(ctx context.Context, answerKeyID uuid.UUID, claimedName, claimedPhone string) (*model.Student, error) {
	name := strings.TrimSpace(claimedName)
	digits := phoneDigits(claimedPhone)
	if name == "" || digits == "" {
		return nil, ErrIdentityMismatch
	}

	student, err := v.roster.FindByNameAndPhone(ctx, name, digits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityMismatch
		}
		return nil, fmt.Errorf("roster lookup: %w", err)
	}
	return student, nil
}

// phoneDigits strips everything but digits from a phone number.
func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
