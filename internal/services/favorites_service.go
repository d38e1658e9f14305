package services

import "encore/internal/repos"

type FavoritesService struct {
	Repo *repos.FavoritesRepo
}

func NewFavoritesService(r *repos.FavoritesRepo) *FavoritesService { return &FavoritesService{Repo: r} }

func (s *FavoritesService) Save(sessionID, trackID string) error {
	id, err := s.Repo.Ensure(sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Add(id, trackID)
}

func (s *FavoritesService) Unsave(sessionID, trackID string) error {
	id, err := s.Repo.Ensure(sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Remove(id, trackID)
}

func (s *FavoritesService) List(sessionID string) ([]repos.FavoriteRow, error) {
	id, err := s.Repo.Ensure(sessionID)
	if err != nil {
		return nil, err
	}
	return s.Repo.List(id)
}
