package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pressroom/app/api"
	"pressroom/app/bulk"
	"pressroom/app/models"

	"go.uber.org/zap"
)

// ErrNothingToUpload is returned when every row of a bulk file was rejected.
var ErrNothingToUpload = errors.New("services: no valid rows to upload")

// AdminService moderates users, releases and whistleblower reports.
type AdminService struct {
	api    AdminAPI
	logger *zap.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(a AdminAPI, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{api: a, logger: logger.Named("admin")}
}

// Users lists accounts, optionally filtered.
func (s *AdminService) Users(ctx context.Context, q api.UserQuery) ([]models.User, error) {
	if q.Role != "" && !q.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, q.Role)
	}
	return s.api.Users(ctx, q)
}

// SetUserStatus changes an account's status.
func (s *AdminService) SetUserStatus(ctx context.Context, id, status string) (models.User, error) {
	switch status {
	case models.StatusActive, models.StatusPending, models.StatusSuspended, models.StatusInactive:
	default:
		return models.User{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	u, err := s.api.SetUserStatus(ctx, id, status)
	if err != nil {
		return models.User{}, err
	}
	s.logger.Info("user status changed", zap.String("user_id", id), zap.String("status", status))
	return u, nil
}

// Releases lists releases, optionally by status.
func (s *AdminService) Releases(ctx context.Context, status string) ([]models.Release, error) {
	return s.api.AdminReleases(ctx, status)
}

// Approve accepts a pending release.
func (s *AdminService) Approve(ctx context.Context, id string) (models.Release, error) {
	return s.decide(ctx, id, api.ReleaseDecision{Status: models.ReleaseApproved})
}

// Reject turns a pending release down. A reason is required so the author
// knows what to fix.
func (s *AdminService) Reject(ctx context.Context, id, reason string) (models.Release, error) {
	if reason == "" {
		return models.Release{}, fmt.Errorf("%w: a rejection reason is required", ErrInvalid)
	}
	return s.decide(ctx, id, api.ReleaseDecision{Status: models.ReleaseRejected, Reason: reason})
}

// Publish makes an approved release public.
func (s *AdminService) Publish(ctx context.Context, id string) (models.Release, error) {
	return s.decide(ctx, id, api.ReleaseDecision{Status: models.ReleasePublished})
}

func (s *AdminService) decide(ctx context.Context, id string, d api.ReleaseDecision) (models.Release, error) {
	rel, err := s.api.SetReleaseStatus(ctx, id, d)
	if err != nil {
		return models.Release{}, err
	}
	s.logger.Info("release status changed", zap.String("release_id", id), zap.String("status", d.Status))
	return rel, nil
}

// Reports lists whistleblower reports.
func (s *AdminService) Reports(ctx context.Context) ([]models.WhistleblowerReport, error) {
	return s.api.WhistleblowerReports(ctx)
}

// SetReportStatus moves a report through review.
func (s *AdminService) SetReportStatus(ctx context.Context, id, status string) (models.WhistleblowerReport, error) {
	check := models.WhistleblowerReport{Status: status}
	if err := check.Validate(); err != nil {
		return models.WhistleblowerReport{}, fmt.Errorf("%w: unknown report status %q", ErrInvalid, status)
	}
	return s.api.SetReportStatus(ctx, id, status)
}

// UploadResult is the outcome of a bulk upload.
type UploadResult struct {
	Sent     int             `json:"sent"`
	Rejected []bulk.RowError `json:"rejected,omitempty"`
	Server   api.BulkResult  `json:"server"`
}

// Upload validates a CSV file locally and sends only the rows that passed.
// Rejected rows are reported even when the upload itself succeeds.
func (s *AdminService) Upload(ctx context.Context, kind, filename string, r io.Reader) (UploadResult, error) {
	var (
		clean    []byte
		sent     int
		rejected []bulk.RowError
		err      error
	)
	switch kind {
	case api.BulkReleases:
		var rows []bulk.ReleaseRow
		rows, rejected, err = bulk.ParseReleases(r)
		if err == nil && len(rows) > 0 {
			sent = len(rows)
			clean, err = bulk.Encode(rows)
		}
	case api.BulkJournalists:
		var rows []bulk.JournalistRow
		rows, rejected, err = bulk.ParseJournalists(r)
		if err == nil && len(rows) > 0 {
			sent = len(rows)
			clean, err = bulk.Encode(rows)
		}
	default:
		return UploadResult{}, fmt.Errorf("%w: unknown upload kind %q", ErrInvalid, kind)
	}
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	res := UploadResult{Sent: sent, Rejected: rejected}
	if sent == 0 {
		return res, ErrNothingToUpload
	}

	res.Server, err = s.api.BulkUpload(ctx, kind, filename, clean)
	if err != nil {
		return res, err
	}
	s.logger.Info("bulk upload",
		zap.String("kind", kind),
		zap.Int("sent", sent),
		zap.Int("rejected_rows", len(rejected)),
		zap.Int("created", res.Server.Created),
		zap.Int("failed", res.Server.Failed))
	return res, nil
}
