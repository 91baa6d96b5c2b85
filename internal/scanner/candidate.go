package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/domain"
)

type showStats struct {
	totalBytes      int64
	videoCount      int
	episodeNFOCount int
	seasonCount     int
}

func (s *Scanner) buildCandidate(showPath, hotRoot, coldRoot string) *domain.Show {
	title := filepath.Base(showPath)
	source := domain.ShowSourceScan
	if nfoTitle, ok := s.readShowTitle(showPath); ok {
		title = nfoTitle
		source = domain.ShowSourceScanNFO
	}

	stats := gatherStats(showPath)
	episodes := stats.videoCount
	if stats.episodeNFOCount > 0 {
		episodes = stats.episodeNFOCount
	}

	return &domain.Show{
		Title:         title,
		Path:          showPath,
		Location:      domain.LocationOf(showPath, hotRoot, coldRoot),
		SizeBytes:     stats.totalBytes,
		SeasonCount:   stats.seasonCount,
		EpisodeCount:  episodes,
		ThumbnailPath: findThumbnail(showPath),
		Source:        source,
		LastScan:      s.now(),
	}
}

// gatherStats walks the show tree once. Unreadable entries are skipped.
func gatherStats(showPath string) showStats {
	var stats showStats
	seasons := make(map[string]struct{})

	_ = filepath.WalkDir(showPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if info, err := d.Info(); err == nil {
			stats.totalBytes += info.Size()
		}

		name := d.Name()
		switch {
		case isVideoFile(name):
			stats.videoCount++
			if season := firstComponent(showPath, filepath.Dir(path)); season != "" {
				seasons[season] = struct{}{}
			}
		case isEpisodeNFO(name):
			stats.episodeNFOCount++
		}
		return nil
	})

	switch {
	case len(seasons) > 0:
		stats.seasonCount = len(seasons)
	case stats.videoCount > 0:
		stats.seasonCount = 1
	}
	return stats
}

// firstComponent returns the first directory below root on the way to dir,
// or "" when dir is root itself.
func firstComponent(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	first, _, _ := strings.Cut(rel, string(filepath.Separator))
	return first
}

func isVideoFile(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return false
	}
	for _, candidate := range constants.VideoExtensions {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}
	return false
}

func isEpisodeNFO(name string) bool {
	return strings.EqualFold(filepath.Ext(name), constants.ExtNFO) &&
		!strings.EqualFold(name, constants.ShowNFOName)
}

func findThumbnail(showPath string) *string {
	for _, name := range constants.ThumbnailNames {
		candidate := filepath.Join(showPath, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return &candidate
		}
	}
	return nil
}
