package dto

import (
	"github.com/dustin/go-humanize"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/storage"
)

type UsageResponse struct {
	*storage.Usage
	TotalHuman string  `json:"total_human"`
	UsedHuman  string  `json:"used_human"`
	FreeHuman  string  `json:"free_human"`
	Percent    float64 `json:"percent"`
}

func NewUsageResponse(u *storage.Usage) *UsageResponse {
	if u == nil {
		return nil
	}
	return &UsageResponse{
		Usage:      u,
		TotalHuman: humanize.Bytes(u.TotalBytes),
		UsedHuman:  humanize.Bytes(u.UsedBytes),
		FreeHuman:  humanize.Bytes(u.FreeBytes),
		Percent:    u.Percent(),
	}
}

type PoolResponse struct {
	Usage *UsageResponse `json:"usage,omitempty"`
	Tier  string         `json:"tier"`
	Path  string         `json:"path"`
	Error string         `json:"error,omitempty"`
}

func NewPoolResponses(pools []app.Pool) []PoolResponse {
	out := make([]PoolResponse, 0, len(pools))
	for _, p := range pools {
		out = append(out, PoolResponse{
			Usage: NewUsageResponse(p.Usage),
			Tier:  p.Tier.String(),
			Path:  p.Path,
			Error: p.Error,
		})
	}
	return out
}

type DirectoryResponse struct {
	Usage *UsageResponse `json:"usage,omitempty"`
	Name  string         `json:"name"`
	Path  string         `json:"path"`
}

func NewDirectoryResponses(entries []storage.DirEntry) []DirectoryResponse {
	out := make([]DirectoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirectoryResponse{Usage: NewUsageResponse(e.Usage), Name: e.Name, Path: e.Path})
	}
	return out
}
