package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"encore/internal/domain"
	"encore/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// Member is a signed-in user together with the patron tier resolved when
// they signed in.
type Member struct {
	*domain.User
	Tier domain.Tier
}

// AuthService checks fan credentials and ties them to the browser session.
// Patrons is optional; without it every member is TierNone.
type AuthService struct {
	Users   *repos.UserRepo
	Patrons *PatronService
}

func (s *AuthService) Login(sid, email, password string) (Member, error) {
	u, err := s.Users.ByEmail(strings.TrimSpace(email))
	if err != nil {
		return Member{}, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return Member{}, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return Member{}, err
	}
	m := Member{User: u, Tier: domain.TierNone}
	if s.Patrons != nil {
		// tier lookup errors do not block sign-in
		if t, err := s.Patrons.TierFor(u); err == nil {
			m.Tier = t
		}
	}
	return m, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

// CurrentUser returns the user bound to sid, or sql.ErrNoRows for an
// anonymous session.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
