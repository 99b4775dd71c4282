package services

import (
	"context"
	"sort"
	"strings"

	"minimarket/internal/domain"
	"minimarket/internal/repos"
)

type ProductFilter struct {
	Query    string
	Category string
	Page     int
	PageSize int
}

type ProductPage struct {
	Items    []domain.Product `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// MaxPageSize caps ProductFilter.PageSize.
const MaxPageSize = 100

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

// ListProducts filters by name/description substring and exact category,
// then slices out the requested page. PageSize is capped at MaxPageSize.
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) (ProductPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 12
	}
	f.PageSize = min(f.PageSize, MaxPageSize)
	all, err := s.Prods.List(ctx)
	if err != nil {
		return ProductPage{}, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	cat := strings.TrimSpace(f.Category)

	matched := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if cat != "" && !strings.EqualFold(p.Category, cat) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		matched = append(matched, p)
	}

	page := ProductPage{Items: []domain.Product{}, Total: len(matched), Page: f.Page, PageSize: f.PageSize}
	// compare before multiplying so huge page numbers cannot overflow
	if f.Page-1 > len(matched)/f.PageSize {
		return page, nil
	}
	start := (f.Page - 1) * f.PageSize
	if start >= len(matched) {
		return page, nil
	}
	end := min(start+f.PageSize, len(matched))
	page.Items = matched[start:end]
	return page, nil
}

// ListCategories returns the distinct categories in use, sorted.
func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	all, err := s.Prods.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, p := range all {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Create(ctx, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Update(ctx, p)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.Prods.Delete(ctx, id)
}

// Availability converts stock into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *CatalogService) Availability(ctx context.Context, id string) (domain.Availability, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Availability{}, err
	}
	status := "OUT_OF_STOCK"
	switch {
	case p.Stock >= 5:
		status = "IN_STOCK"
	case p.Stock > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: p.Stock}, nil
}
