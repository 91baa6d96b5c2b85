package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/storage"
	"github.com/cesargomez89/showmover/internal/store"
)

// ShowQuery is a listing request as it arrives from a caller. Zero values
// mean "no filter" and "default paging".
type ShowQuery struct {
	Location string
	Search   string
	SortBy   string
	SortDir  string
	Limit    int
	Offset   int
}

// ShowPage is one page of shows plus the unpaged match count.
type ShowPage struct {
	Items  []*domain.Show
	Total  int
	Limit  int
	Offset int
}

type ShowService struct {
	Repo     *store.DB
	Settings SettingsSource
}

func NewShowService(repo *store.DB, cfg SettingsSource) *ShowService {
	return &ShowService{Repo: repo, Settings: cfg}
}

// ListShows applies the default page size, caps the limit and ignores search
// terms longer than the maximum.
func (s *ShowService) ListShows(ctx context.Context, q ShowQuery) (*ShowPage, error) {
	filter := store.ShowFilter{
		SortBy:  q.SortBy,
		SortDir: q.SortDir,
		Limit:   q.Limit,
		Offset:  max(q.Offset, 0),
	}
	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultPageSize
	}
	filter.Limit = min(filter.Limit, constants.MaxPageSize)

	if loc := strings.TrimSpace(q.Location); loc != "" {
		parsed, err := domain.ParseLocation(loc)
		if err != nil {
			return nil, err
		}
		filter.Location = parsed
	}
	if term := strings.TrimSpace(q.Search); len(term) <= constants.MaxSearchLength {
		filter.Search = term
	}

	shows, err := s.Repo.ListShows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list shows: %v", domain.ErrStore, err)
	}
	total, err := s.Repo.CountShows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: count shows: %v", domain.ErrStore, err)
	}
	return &ShowPage{Items: shows, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *ShowService) GetShow(ctx context.Context, id string) (*domain.Show, error) {
	show, err := s.Repo.GetShow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get show: %v", domain.ErrStore, err)
	}
	if show == nil {
		return nil, domain.ErrShowNotFound
	}
	return show, nil
}

// ResolveShow looks a show up by id, or by directory when ref is an absolute path.
func (s *ShowService) ResolveShow(ctx context.Context, ref string) (*domain.Show, error) {
	if !filepath.IsAbs(ref) {
		return s.GetShow(ctx, ref)
	}
	show, err := s.Repo.GetShowByPath(ctx, filepath.Clean(ref))
	if err != nil {
		return nil, fmt.Errorf("%w: get show by path: %v", domain.ErrStore, err)
	}
	if show == nil {
		return nil, domain.ErrShowNotFound
	}
	return show, nil
}

// Thumbnail returns the image path of a show. Only files under a configured
// root or library path are handed out.
func (s *ShowService) Thumbnail(ctx context.Context, id string) (string, error) {
	show, err := s.GetShow(ctx, id)
	if err != nil {
		return "", err
	}
	if show.ThumbnailPath == nil || *show.ThumbnailPath == "" {
		return "", domain.ErrThumbnailNotFound
	}
	path := *show.ThumbnailPath

	allowed := false
	for _, root := range s.Settings.Snapshot().AllowedRoots() {
		if domain.IsWithin(path, root) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: %s", domain.ErrAccessDenied, path)
	}

	if !storage.IsFile(path) {
		return "", domain.ErrThumbnailNotFound
	}
	return path, nil
}
