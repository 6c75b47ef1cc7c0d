package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"medreport-backend/internal/extract"
)

// Service runs the ingestion pipeline and owner-isolated retrieval.
//
// Ingestion moves strictly forward through validation, text extraction,
// classification, structured extraction, and persistence; the first failure
// terminates the pipeline and nothing is persisted on any failure path.
type Service struct {
	Repo       Repo
	Classifier *Classifier
	Extractor  *Extractor
}

// NewService constructs a Service.
func NewService(repo Repo, llmClassifier *Classifier, llmExtractor *Extractor) *Service {
	return &Service{Repo: repo, Classifier: llmClassifier, Extractor: llmExtractor}
}

// Ingest processes one uploaded document for the given owner and returns the
// persisted report id. Raw bytes and extracted text are never persisted.
func (s *Service) Ingest(ctx context.Context, ownerID, filename string, payload []byte) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", errors.New("owner id is required")
	}
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".pdf") {
		return "", fmt.Errorf("%w: filename must end in .pdf", ErrInvalidUpload)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidUpload)
	}

	pages, err := extract.Pages(payload)
	if err != nil {
		return "", err
	}
	fullText := extract.JoinPages(pages)

	verdict := s.Classifier.Classify(ctx, fullText)
	if !verdict.IsMedicalReport {
		return "", fmt.Errorf("%w: %s", ErrNotMedicalReport, verdict.Reason)
	}

	data, err := s.Extractor.Extract(ctx, fullText)
	if err != nil {
		return "", err
	}

	report := Report{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Filename:  filename,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.Repo.Save(ctx, report)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return id, nil
}

// Get returns a report if it exists and belongs to the owner. A report that
// exists under another owner yields ErrForbidden, not ErrNotFound.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Report, error) {
	report, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if report.UserID != ownerID {
		return Report{}, ErrForbidden
	}
	return report, nil
}

// List returns all reports owned by the user, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Report, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Delete removes an owned report.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	report, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if report.UserID != ownerID {
		return ErrForbidden
	}
	existed, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}
