// Package health aggregates dependency liveness for the health endpoint.
package health

import (
	"context"
	"database/sql"
	"time"

	"medreport-backend/internal/llm/ollama"
)

// Status is the health snapshot returned by the endpoint.
type Status struct {
	OK       bool            `json:"ok"`
	Database ComponentStatus `json:"database"`
	Analysis ComponentStatus `json:"analysis"`
}

// ComponentStatus describes one dependency.
type ComponentStatus struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Service probes the database and the analysis backend.
type Service struct {
	DB  *sql.DB
	LLM *ollama.Client
}

// NewService constructs a Service. Both dependencies are optional: a nil DB
// means in-memory storage is in use and counts as healthy.
func NewService(db *sql.DB, llmClient *ollama.Client) *Service {
	return &Service{DB: db, LLM: llmClient}
}

// Check probes both dependencies. The overall status is OK only when every
// configured dependency answers.
func (s *Service) Check(ctx context.Context) Status {
	status := Status{
		Database: s.checkDB(ctx),
		Analysis: s.checkLLM(ctx),
	}
	status.OK = status.Database.OK && status.Analysis.OK
	return status
}

func (s *Service) checkDB(ctx context.Context) ComponentStatus {
	if s.DB == nil {
		return ComponentStatus{OK: true, Detail: "in-memory storage"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		return ComponentStatus{OK: false, Detail: err.Error()}
	}
	return ComponentStatus{OK: true}
}

func (s *Service) checkLLM(ctx context.Context) ComponentStatus {
	if s.LLM == nil {
		return ComponentStatus{OK: false, Detail: "analysis backend not configured"}
	}
	ok, detail := s.LLM.Health(ctx)
	return ComponentStatus{OK: ok, Detail: detail}
}
