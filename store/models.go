package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Location event sources.
const (
	SourceIngest    = "ingest"
	SourceDashboard = "dashboard"
	SourceSimulator = "simulator"
)

// User is a dashboard account. The password hash never leaves the store
// layer in serialized form.
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"index;not null;default:user"`
	LastSeenAt   time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.LastSeenAt.IsZero() {
		u.LastSeenAt = time.Now().UTC()
	}
	return nil
}

// LastLocation is the embedded last-known location snapshot on a device.
// A zero Timestamp means no location has been recorded yet.
type LastLocation struct {
	Lat       float64
	Lng       float64
	Speed     float64
	Heading   float64
	Accuracy  float64
	Timestamp time.Time
}

// Recorded reports whether the snapshot holds a real reading.
func (l LastLocation) Recorded() bool { return !l.Timestamp.IsZero() }

// Device is a registered tracker. TrackingID is the public identifier;
// IngestKeyHash is the only stored form of the ingest secret.
type Device struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	UserID        string `gorm:"index;not null"`
	Name          string `gorm:"not null"`
	TrackingID    string `gorm:"uniqueIndex;not null"`
	IngestKeyHash string `gorm:"not null"`
	IsOnline      bool   `gorm:"index"`
	LastActiveAt  *time.Time
	LastLocation  LastLocation `gorm:"embedded;embeddedPrefix:last_"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// LocationHistory is one immutable location event. Rows expire through the
// retention janitor, not through updates.
type LocationHistory struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"index;not null"`
	DeviceID   string `gorm:"index:idx_history_device_captured,priority:1;not null"`
	Lat        float64
	Lng        float64
	Speed      float64
	Heading    float64
	Accuracy   float64
	Source     string    `gorm:"not null;default:ingest"`
	CapturedAt time.Time `gorm:"index:idx_history_device_captured,priority:2;index;not null"`
}

func (LocationHistory) TableName() string { return "location_history" }
