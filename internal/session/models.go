package session

import (
	"time"

	"gorm.io/datatypes"
)

// recordID pins the singleton session row; there is one session per deployment.
const recordID = 1

// SessionModel is the GORM row holding the whole session record.
// Messages are stored as a JSON document so Save stays a whole-record
// replace, matching the other backends.
type SessionModel struct {
	ID                int            `gorm:"primaryKey"`
	Messages          datatypes.JSON `gorm:"type:jsonb;not null"`
	LastExtractedData *string
	LastImageID       *string
	UpdatedAt         time.Time `gorm:"not null"`
}
