package dto

import (
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cesargomez89/showmover/internal/domain"
)

type MoveRequest struct {
	Target string `json:"target"`
}

func (r MoveRequest) Validate() []ValidationError {
	if errs := validateRequired("target", r.Target); errs != nil {
		return errs
	}
	return validateChoice("target", r.Target, []string{string(domain.LocationHot), string(domain.LocationCold)})
}

// JobStatusActive restricts a job listing to queued and running jobs.
const JobStatusActive = "active"

type JobsQuery struct {
	Pagination
	Active bool
}

func ParseJobsQuery(q url.Values) (JobsQuery, []ValidationError) {
	page, errs := ParsePagination(q)
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	errs = append(errs, validateChoice("status", status, []string{JobStatusActive})...)
	return JobsQuery{Pagination: page, Active: status == JobStatusActive}, errs
}

// JobResponse is a job with human readable progress fields alongside the raw
// counters.
type JobResponse struct {
	*domain.Job
	ProgressHuman   string  `json:"progress_human"`
	TotalHuman      string  `json:"total_human"`
	SpeedHuman      string  `json:"speed_human"`
	ETAHuman        string  `json:"eta_human,omitempty"`
	UpdatedHuman    string  `json:"updated_human"`
	ProgressPercent float64 `json:"progress_percent"`
}

func NewJobResponse(j *domain.Job) JobResponse {
	resp := JobResponse{
		Job:           j,
		ProgressHuman: humanize.Bytes(uint64(max(j.ProgressBytes, 0))),
		TotalHuman:    humanize.Bytes(uint64(max(j.TotalBytes, 0))),
		SpeedHuman:    humanize.Bytes(uint64(max(j.SpeedBytesPerSec, 0))) + "/s",
		UpdatedHuman:  humanize.Time(j.UpdatedAt),
	}
	if j.TotalBytes > 0 {
		resp.ProgressPercent = float64(j.ProgressBytes) / float64(j.TotalBytes) * 100
	} else if j.Status == domain.JobStatusSuccess {
		resp.ProgressPercent = 100
	}
	if j.ETASeconds > 0 {
		resp.ETAHuman = (time.Duration(j.ETASeconds) * time.Second).String()
	}
	return resp
}

func NewJobResponses(jobs []*domain.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, NewJobResponse(j))
	}
	return out
}

type AnalyticsResponse struct {
	*domain.JobStats
	BytesMovedHuman string `json:"bytes_moved_human"`
}

func NewAnalyticsResponse(s *domain.JobStats) AnalyticsResponse {
	return AnalyticsResponse{
		JobStats:        s,
		BytesMovedHuman: humanize.Bytes(uint64(max(s.BytesMoved, 0))),
	}
}
