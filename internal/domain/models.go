package domain

import (
	"time"
)

type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// IsActive reports whether the job still occupies the mover.
func (s JobStatus) IsActive() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

type ShowSource string

const (
	ShowSourceScan    ShowSource = "fs_scan"
	ShowSourceScanNFO ShowSource = "fs_scan_nfo"
)

// Show is one indexed show directory.
type Show struct {
	LastScan      time.Time  `json:"last_scan" db:"last_scan"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	ThumbnailPath *string    `json:"thumbnail_path,omitempty" db:"thumbnail_path"`
	ID            string     `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Path          string     `json:"path" db:"path"`
	Location      Location   `json:"location" db:"location"`
	Source        ShowSource `json:"source" db:"source"`
	SizeBytes     int64      `json:"size_bytes" db:"size_bytes"`
	SeasonCount   int        `json:"season_count" db:"season_count"`
	EpisodeCount  int        `json:"episode_count" db:"episode_count"`
}

// Job is a request to move one show directory to the other tier.
type Job struct {
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
	ErrorMessage     *string   `json:"error_message,omitempty" db:"error_message"`
	ID               string    `json:"id" db:"id"`
	ShowID           string    `json:"show_id" db:"show_id"`
	SourcePath       string    `json:"source_path" db:"source_path"`
	DestinationPath  string    `json:"destination_path" db:"destination_path"`
	Status           JobStatus `json:"status" db:"status"`
	ProgressBytes    int64     `json:"progress_bytes" db:"progress_bytes"`
	TotalBytes       int64     `json:"total_bytes" db:"total_bytes"`
	SpeedBytesPerSec int64     `json:"speed_bytes_per_sec" db:"speed_bytes_per_sec"`
	ETASeconds       int64     `json:"eta_seconds" db:"eta_seconds"`
}

// JobStats aggregates the job table for the analytics view.
type JobStats struct {
	Total      int   `json:"total" db:"total"`
	Queued     int   `json:"queued" db:"queued"`
	Running    int   `json:"running" db:"running"`
	Succeeded  int   `json:"succeeded" db:"succeeded"`
	Failed     int   `json:"failed" db:"failed"`
	BytesMoved int64 `json:"bytes_moved" db:"bytes_moved"`
}
