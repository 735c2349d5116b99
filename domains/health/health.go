package health

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityDatabase   EntityType = "database"
	EntityValkey     EntityType = "valkey"
	EntityRemoteFeed EntityType = "remote_feed"
)

type Status string

const (
	StatusOk       Status = "OK"
	StatusError    Status = "ERROR"
	StatusUnknown  Status = "UNKNOWN"
	StatusDisabled Status = "DISABLED"
)

type HealthRecord struct {
	EntityType  EntityType `json:"entity_type"`
	Status      Status     `json:"status"`
	LastMessage string     `json:"last_message,omitempty"`
	LastChecked time.Time  `json:"last_checked"`
}

type IHealthUsecase interface {
	GetStatus(ctx context.Context) ([]HealthRecord, error)
}
