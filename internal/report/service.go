package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/keatteoh99/medrock/pkg"
)

// Uploader stores a rendered report and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service renders and publishes reports.
type Service struct {
	store  Uploader
	logger *slog.Logger
}

// NewService constructs a report service. logger may be nil.
func NewService(store Uploader, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("report: nil store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// Generate renders the report and uploads it under a key derived from the
// patient ID, overwriting any previous report for the same patient.
func (s *Service) Generate(ctx context.Context, req pkg.ReportRequest) (string, error) {
	data, err := BuildPDF(req)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("reports/medical_report_%s.pdf", req.Patient.PatientID)
	url, err := s.store.Upload(ctx, key, data, "application/pdf")
	if err != nil {
		return "", err
	}
	s.logger.Info("report uploaded",
		"patient_id", req.Patient.PatientID,
		"bytes", len(data),
		"url", url)
	return url, nil
}
