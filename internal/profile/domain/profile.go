package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrProfileNotFound = errors.New("profile not found")

// Profile is the read-side slice of a user this service needs: a display
// name for the ranked-bid view. Identity and auth live in the external
// identity service.
type Profile struct {
	ID        uuid.UUID
	FullName  string
	CreatedAt time.Time
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
}
