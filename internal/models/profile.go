package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role specific profile. Its fields are opaque to the service
type Profile struct {
	UserID    uuid.UUID
	Role      Role
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
