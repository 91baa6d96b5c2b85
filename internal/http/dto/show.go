package dto

import (
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/domain"
)

var (
	showSortKeys = []string{"title", "size", "date", "seasons", "episodes"}
	sortDirs     = []string{"asc", "desc"}
	locations    = []string{string(domain.LocationHot), string(domain.LocationCold)}
)

// ParseShowsQuery validates the show listing parameters. Search length is
// left to the service, which ignores overlong terms.
func ParseShowsQuery(q url.Values) (app.ShowQuery, []ValidationError) {
	page, errs := ParsePagination(q)

	query := app.ShowQuery{
		Location: strings.TrimSpace(q.Get("location")),
		Search:   q.Get("search"),
		SortBy:   strings.ToLower(strings.TrimSpace(q.Get("sort_by"))),
		SortDir:  strings.ToLower(strings.TrimSpace(q.Get("sort_dir"))),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}

	errs = append(errs, validateChoice("location", query.Location, locations)...)
	errs = append(errs, validateChoice("sort_by", query.SortBy, showSortKeys)...)
	errs = append(errs, validateChoice("sort_dir", query.SortDir, sortDirs)...)
	return query, errs
}

type ShowResponse struct {
	*domain.Show
	SizeHuman    string `json:"size_human"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func NewShowResponse(s *domain.Show) ShowResponse {
	resp := ShowResponse{
		Show:      s,
		SizeHuman: humanize.Bytes(uint64(max(s.SizeBytes, 0))),
	}
	if s.ThumbnailPath != nil && *s.ThumbnailPath != "" {
		resp.ThumbnailURL = "/api/shows/" + url.PathEscape(s.ID) + "/thumbnail"
	}
	return resp
}

func NewShowResponses(shows []*domain.Show) []ShowResponse {
	out := make([]ShowResponse, 0, len(shows))
	for _, s := range shows {
		out = append(out, NewShowResponse(s))
	}
	return out
}
