package services

import (
	"encore/internal/domain"
	"encore/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

func (s *CatalogService) GetCategory(id string) (domain.Category, error) {
	return s.Cats.Get(id)
}

func (s *CatalogService) ListProductsByCategory(catID string, page, pageSize int) ([]domain.Product, error) {
	limit, offset := paging(page, pageSize)
	return s.Prods.ListByCategory(catID, limit, offset)
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

// Variants lists the sizes offered for a product.
func (s *CatalogService) Variants(id string) ([]string, error) {
	return s.Prods.Variants(id)
}

func (s *CatalogService) Search(q, category, kind string, page, pageSize int) ([]domain.Product, error) {
	limit, offset := paging(page, pageSize)
	return s.Prods.Search(q, category, kind, limit, offset)
}

func paging(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return pageSize, (page - 1) * pageSize
}
