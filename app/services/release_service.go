package services

import (
	"context"
	"fmt"
	"time"

	"pressroom/app/models"
)

// ReleaseService lets communications professionals submit press releases.
type ReleaseService struct {
	api     ReleaseAPI
	session Session
	now     func() time.Time
}

// NewReleaseService creates a new ReleaseService
func NewReleaseService(a ReleaseAPI, sess Session) *ReleaseService {
	return &ReleaseService{api: a, session: sess, now: time.Now}
}

// Mine lists the caller's releases.
func (s *ReleaseService) Mine(ctx context.Context) ([]models.Release, error) {
	if _, err := currentUser(s.session); err != nil {
		return nil, err
	}
	return s.api.MyReleases(ctx)
}

// Create validates and submits a release. The organization defaults to the
// caller's.
func (s *ReleaseService) Create(ctx context.Context, rel models.Release) (models.Release, error) {
	u, err := currentUser(s.session)
	if err != nil {
		return models.Release{}, err
	}
	if rel.Organization == "" {
		rel.Organization = u.Organization
	}
	rel.ID, rel.Status, rel.CreatedBy = "", "", ""
	if err := rel.Validate(); err != nil {
		return models.Release{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if rel.EmbargoAt != nil && !rel.EmbargoAt.After(s.now()) {
		return models.Release{}, fmt.Errorf("%w: embargo must be in the future", ErrInvalid)
	}
	return s.api.CreateRelease(ctx, rel)
}
