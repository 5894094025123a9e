package catalog

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

func (s *Service) Get(ctx context.Context, code string) (Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Product{}, errors.New("product code required")
	}
	return s.repo.Get(ctx, code)
}

// Search returns products matching the term, best match first. An exact
// code match always wins so the clerk can type a code and hit enter.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}

	// Fetch a wider candidate set so ranking has room to work with.
	candidates, err := s.repo.Search(ctx, term, limit*5)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri := shared.RankMatch(candidates[i].Code, candidates[i].Description, term)
		rj := shared.RankMatch(candidates[j].Code, candidates[j].Description, term)
		if ri != rj {
			return ri < rj
		}
		return candidates[i].Description < candidates[j].Description
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
