package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents users
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}
