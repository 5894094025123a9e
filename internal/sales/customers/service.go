package customers

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/quotedesk/quotedesk/internal/shared"
)

const defaultSearchLimit = 20

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, code string) (Customer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Customer{}, errors.New("customer code required")
	}
	return s.repo.Get(ctx, code)
}

// Search returns active customers matching the term, exact code first, then
// code prefix, then name matches.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]Customer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}

	candidates, err := s.repo.Search(ctx, term, limit*5)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri := rank(candidates[i], term)
		rj := rank(candidates[j], term)
		if ri != rj {
			return ri < rj
		}
		return candidates[i].Name < candidates[j].Name
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func rank(c Customer, term string) int {
	r := shared.RankMatch(c.Code, c.Name, term)
	if tr := shared.RankMatch("", c.TradeName, term); tr < r {
		r = tr
	}
	return r
}
