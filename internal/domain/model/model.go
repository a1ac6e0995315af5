// Package model contains domain models passed between layers.
//
// All types except JobDetail are pass-through DTOs mirroring the backend's
// JSON schemas; JobDetail is the one aggregate this layer assembles itself.
package model

import (
	"encoding/json"
	"strconv"
)

// Seconds is a timestamp in seconds from the start of the video.
// The backend normally emits a JSON number; missing, null, or otherwise
// non-numeric values decode to zero instead of failing the whole list.
type Seconds float64

func (s *Seconds) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*s = Seconds(n)
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err == nil {
		if v, perr := strconv.ParseFloat(raw, 64); perr == nil {
			*s = Seconds(v)
			return nil
		}
	}
	*s = 0
	return nil
}

// Job is one unit of backend video-processing work. Status is backend-owned
// and treated as an opaque string here (queued, running, succeeded, failed).
type Job struct {
	ID        int64   `json:"id"`
	Status    string  `json:"status"`
	Filename  string  `json:"filename"`
	CreatedAt string  `json:"created_at,omitempty"`
	DurationS float64 `json:"duration_s,omitempty"`
}

// Queued reports whether the job is still waiting for a run trigger.
func (j Job) Queued() bool { return j.Status == "queued" }

// Event is one detected behavior instance tied to a job.
type Event struct {
	ID           int64          `json:"id"`
	JobID        int64          `json:"job_id"`
	TrackID      *int64         `json:"track_id"`
	Type         string         `json:"type"`
	Timestamp    Seconds        `json:"timestamp"`
	Confidence   float64        `json:"confidence"`
	Details      map[string]any `json:"details_json,omitempty"`
	ReviewStatus string         `json:"review_status"`
	ReviewNotes  string         `json:"review_notes,omitempty"`
}

// ReviewDecision is the reviewer's verdict on a detected event.
type ReviewDecision string

const (
	ReviewConfirm ReviewDecision = "confirm"
	ReviewReject  ReviewDecision = "reject"
)

// Valid reports whether the decision is one the backend accepts.
func (d ReviewDecision) Valid() bool {
	return d == ReviewConfirm || d == ReviewReject
}

// AnalyticsWindow is one time-sliced congestion measurement for a job.
type AnalyticsWindow struct {
	TStart          float64        `json:"t_start"`
	TEnd            float64        `json:"t_end"`
	CongestionScore float64        `json:"congestion_score"`
	Counts          map[string]any `json:"counts_json,omitempty"`
	Motion          map[string]any `json:"motion_json,omitempty"`
}

// Artifact is one processing output file attached to a job.
type Artifact struct {
	Name      string `json:"name"`
	Key       string `json:"key,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256,omitempty"`
}

// ArtifactManifest is the backend's envelope for a job's artifact list.
type ArtifactManifest struct {
	JobID     int64      `json:"job_id"`
	Artifacts []Artifact `json:"artifacts"`
}

// Clip identifies one source clip of a job; used only as a filter parameter
// for event and analytics queries.
type Clip struct {
	ClipID string `json:"clip_id"`
}

// ClipList is the backend's envelope for a job's clips.
type ClipList struct {
	JobID int64  `json:"job_id"`
	Clips []Clip `json:"clips"`
}

// PreviewAsset carries the signed URL of a processed preview video.
type PreviewAsset struct {
	URL string `json:"url"`
}

// UsageLimits mirrors the per-month quota block of the usage report.
type UsageLimits struct {
	ProcessedMinutes float64 `json:"processed_minutes"`
	Jobs             int64   `json:"jobs"`
	Exports          int64   `json:"exports"`
}

// OrgUsage is the organization's consumption for the current month.
type OrgUsage struct {
	OrgID            int64       `json:"org_id"`
	YearMonth        string      `json:"year_month"`
	ProcessedMinutes float64     `json:"processed_minutes"`
	JobsTotal        int64       `json:"jobs_total"`
	ExportsTotal     int64       `json:"exports_total"`
	Limits           UsageLimits `json:"limits"`
}

// APIToken is one org-scoped API token. Revoked tokens remain listed as
// immutable history; only the revoked marker distinguishes them.
type APIToken struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	CreatedAt string  `json:"created_at"`
	RevokedAt *string `json:"revoked_at"`
}

// Revoked reports whether the token has been revoked.
func (t APIToken) Revoked() bool { return t.RevokedAt != nil && *t.RevokedAt != "" }

// NewToken is the create-token response. Token is the plaintext value,
// surfaced exactly once; subsequent listings never include it.
type NewToken struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Token     string `json:"token"`
	CreatedAt string `json:"created_at"`
}

// CatalogItem is one published data-pack entry in the org data catalog.
type CatalogItem struct {
	JobID           int64  `json:"job_id"`
	Filename        string `json:"filename"`
	Status          string `json:"status"`
	DatapackVersion string `json:"datapack_version"`
	Hash            string `json:"hash"`
	Download        string `json:"download"`
}

// UploadReceipt is the backend's acknowledgment of a video upload.
type UploadReceipt struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// JobDetail is the consolidated, presentation-ready aggregate for a single
// job. Job, Events, and Analytics are always populated on success; Artifacts,
// Clips, and PreviewURL degrade to empty values when their lookups fail.
// ClipFilter records the filter the aggregate was built for.
type JobDetail struct {
	Job        *Job
	Events     []Event
	Analytics  []AnalyticsWindow
	Artifacts  []Artifact
	Clips      []Clip
	PreviewURL string
	ClipFilter string
}
