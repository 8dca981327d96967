package application

import "github.com/sglre6355/portfolio/internal/modules/profile/domain"

// ProfileService serves the artist profile.
type ProfileService struct {
	profile *domain.Profile
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profile *domain.Profile) *ProfileService {
	return &ProfileService{profile: profile}
}

// Get returns a copy of the profile.
func (s *ProfileService) Get() domain.Profile {
	p := *s.profile
	p.Taglines = append([]string(nil), s.profile.Taglines...)
	p.Links = append([]domain.Link(nil), s.profile.Links...)
	return p
}
