package services

import (
	"database/sql"
	"errors"
	"time"

	"encore/internal/domain"
	"encore/internal/repos"
)

type PatronService struct {
	Patrons *repos.PatronRepo
	Now     func() time.Time
}

func NewPatronService(p *repos.PatronRepo) *PatronService {
	return &PatronService{Patrons: p, Now: time.Now}
}

func (s *PatronService) Tiers() ([]domain.TierInfo, error) { return s.Patrons.Tiers() }

// TierFor returns the tier a user can use right now. Anonymous visitors and
// non-subscribers get TierNone; admins hear everything so they can time lyrics.
func (s *PatronService) TierFor(u *domain.User) (domain.Tier, error) {
	if u == nil {
		return domain.TierNone, nil
	}
	if u.IsAdmin() {
		return domain.TierSuperfan, nil
	}
	p, err := s.Patrons.ByEmail(u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TierNone, nil
	}
	if err != nil {
		return domain.TierNone, err
	}
	return p.Effective(s.Now()), nil
}
