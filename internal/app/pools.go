package app

import (
	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/storage"
)

// Pool is the filesystem usage behind one storage tier.
type Pool struct {
	Usage *storage.Usage  `json:"usage,omitempty"`
	Tier  domain.Location `json:"tier"`
	Path  string          `json:"path"`
	Error string          `json:"error,omitempty"`
}

// CollectPools reports usage for the hot and cold roots. A blank root or a
// failed statfs is reported on the pool rather than as an error.
func CollectPools(cfg settings.Settings) []Pool {
	pools := []Pool{
		{Tier: domain.LocationHot, Path: cfg.HotRoot},
		{Tier: domain.LocationCold, Path: cfg.ColdRoot},
	}
	for i := range pools {
		p := &pools[i]
		if p.Path == "" {
			p.Error = (&domain.MissingRootError{Field: string(p.Tier) + "_root"}).Error()
			continue
		}
		usage, err := storage.DiskUsage(p.Path)
		if err != nil {
			p.Error = err.Error()
			continue
		}
		p.Usage = usage
	}
	return pools
}
