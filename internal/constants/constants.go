// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort         = "8080"
	DefaultDBPath       = "data/showmover.db"
	DefaultSettingsPath = "config/settings.toml"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultHTTPTimeout  = 10 * time.Second
	DefaultRetryCount   = 3
	DefaultRetryBase    = 1 * time.Second
	LockFileSuffix      = ".lock"
)

// Worker timing
const (
	WorkerIdleInterval = 2 * time.Second
	WorkerCooldown     = 200 * time.Millisecond
	WorkerErrorBackoff = 5 * time.Second
)

// Tier tokens
const (
	TierHot  = "hot"
	TierCold = "cold"
)

// Scanner file conventions
const (
	ShowNFOName = "tvshow.nfo"
	ExtNFO      = ".nfo"
)

// VideoExtensions are matched case-insensitively, without the leading dot.
var VideoExtensions = []string{"mkv", "mp4", "avi", "mov", "m4v", "wmv"}

// ThumbnailNames are tried in order at the show root.
var ThumbnailNames = []string{"folder.jpg", "poster.jpg", "cover.jpg", "thumb.jpg"}

// Database
const (
	ShowsTable    = "shows"
	JobsTable     = "jobs"
	SettingsTable = "settings"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Listing limits
const (
	DefaultPageSize  = 50
	MaxPageSize      = 500
	MaxSearchLength  = 100
	ThumbnailMaxAge  = 3600
	DefaultUITheme   = "jelly"
	JellyfinTokenHdr = "X-Emby-Token"
)

// UITheme values accepted by the preferences endpoint.
var UIThemes = []string{"jelly", "light", "dark"}
