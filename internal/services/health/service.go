package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. A nil db means the process
// runs on in-memory repositories.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status returns a simple health payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// StorageStatus describes which persistence backend serves requests.
type StorageStatus struct {
	Storage   string `json:"storage"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Storage reports the storage mode and, for Postgres, whether a ping succeeds.
func (s *Service) Storage(ctx context.Context) StorageStatus {
	if s == nil || s.DB == nil {
		return StorageStatus{Storage: "memory", Connected: true}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return StorageStatus{Storage: "postgres", Connected: false, Error: err.Error()}
	}
	return StorageStatus{Storage: "postgres", Connected: true}
}
