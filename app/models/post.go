package models

import "errors"

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.LikesCount < 0 || p.Shares < 0 || p.Views < 0 {
		return errors.New("engagement counters cannot be negative")
	}
	return nil
}

// Validate checks a report before it is sent.
func (r *ContentReport) Validate() error {
	return validate.Struct(r)
}

// Validate checks a release before it is submitted.
func (r *Release) Validate() error {
	return validate.Struct(r)
}

// Validate checks the report status.
func (w *WhistleblowerReport) Validate() error {
	return validate.Struct(w)
}

// LikedBy reports whether userID is in the post's like-set.
func (e Engagement) LikedBy(userID string) bool {
	for _, id := range e.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
