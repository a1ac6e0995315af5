package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/okian/roadlens/internal/domain/model"
	"github.com/okian/roadlens/pkg/logger"
	"github.com/okian/roadlens/pkg/metrics"
)

// defaultPreviewAsset is the fixed artifact name of the processed preview video.
const defaultPreviewAsset = "preview_tracking.mp4"

// Client exposes the typed endpoint surface of the processing backend.
// Every protected call independently asserts a valid credential through the
// shared session; a 401 from any call invalidates the cached token so the
// next operation re-authenticates.
type Client struct {
	d            *Dispatcher
	session      *Session
	previewAsset string
	log          logger.Logger
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithPreviewAsset overrides the artifact name used for preview lookups.
func WithPreviewAsset(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.previewAsset = name
		}
	}
}

// WithClientLogger sets a custom logger for the client.
func WithClientLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient wires a typed client over the dispatcher and session.
func NewClient(d *Dispatcher, session *Session, opts ...ClientOption) *Client {
	c := &Client{
		d:            d,
		session:      session,
		previewAsset: defaultPreviewAsset,
		log:          logger.Get().Named("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// authed acquires a credential and dispatches, invalidating the session
// when the backend answers 401. No automatic retry; the next user-triggered
// operation re-acquires.
func (c *Client) authed(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	token, err := c.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.d.Dispatch(ctx, method, path, append(opts, WithBearer(token))...)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized {
		c.session.Invalidate()
	}
	return resp, nil
}

// ListJobs fetches the job collection in backend order.
func (c *Client) ListJobs(ctx context.Context) ([]model.Job, error) {
	resp, err := c.authed(ctx, http.MethodGet, "/jobs", WithOperation("load jobs"))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load jobs", resp)
	}
	jobs := []model.Job{}
	resp.DecodeJSON(&jobs)
	return jobs, nil
}

// RunJob triggers processing for a queued job.
func (c *Client) RunJob(ctx context.Context, jobID int64) error {
	resp, err := c.authed(ctx, http.MethodPost, fmt.Sprintf("/jobs/%d/run", jobID), WithOperation("run job"))
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newAPIError("run job", resp)
	}
	return nil
}

// GetJob fetches one job's metadata.
func (c *Client) GetJob(ctx context.Context, jobID int64) (*model.Job, error) {
	resp, err := c.authed(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d", jobID), WithOperation("load job"))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load job", resp)
	}
	var job model.Job
	if !resp.DecodeJSON(&job) {
		return nil, newAPIError("load job", resp)
	}
	return &job, nil
}

// ListEvents fetches a job's detected events, optionally filtered by clip.
func (c *Client) ListEvents(ctx context.Context, jobID int64, clipID string) ([]model.Event, error) {
	opts := []RequestOption{WithOperation("load events")}
	if clipID != "" {
		opts = append(opts, WithQuery("clip_id", clipID))
	}
	resp, err := c.authed(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d/events", jobID), opts...)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load events", resp)
	}
	events := []model.Event{}
	resp.DecodeJSON(&events)
	return events, nil
}

// ListAnalytics fetches a job's congestion windows, optionally filtered by clip.
func (c *Client) ListAnalytics(ctx context.Context, jobID int64, clipID string) ([]model.AnalyticsWindow, error) {
	opts := []RequestOption{WithOperation("load analytics")}
	if clipID != "" {
		opts = append(opts, WithQuery("clip_id", clipID))
	}
	resp, err := c.authed(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d/analytics", jobID), opts...)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load analytics", resp)
	}
	windows := []model.AnalyticsWindow{}
	resp.DecodeJSON(&windows)
	return windows, nil
}

// ListArtifacts fetches a job's artifact manifest.
func (c *Client) ListArtifacts(ctx context.Context, jobID int64) ([]model.Artifact, error) {
	resp, err := c.authed(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d/artifacts", jobID), WithOperation("load artifacts"))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load artifacts", resp)
	}
	var manifest model.ArtifactManifest
	resp.DecodeJSON(&manifest)
	return manifest.Artifacts, nil
}

// ListClips fetches the clips belonging to a job.
func (c *Client) ListClips(ctx context.Context, jobID int64) ([]model.Clip, error) {
	resp, err := c.authed(ctx, http.MethodGet, fmt.Sprintf("/jobs/%d/clips", jobID), WithOperation("load clips"))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load clips", resp)
	}
	var list model.ClipList
	resp.DecodeJSON(&list)
	return list.Clips, nil
}

// PreviewAssetURL looks up the signed URL of the processed preview video.
// A 404 here usually just means processing has not succeeded yet.
func (c *Client) PreviewAssetURL(ctx context.Context, jobID int64) (string, error) {
	resp, err := c.authed(ctx, http.MethodGet,
		fmt.Sprintf("/jobs/%d/artifacts/%s", jobID, c.previewAsset),
		WithOperation("load preview"))
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", newAPIError("load preview", resp)
	}
	var asset model.PreviewAsset
	resp.DecodeJSON(&asset)
	return asset.URL, nil
}

// ReviewEvent submits the reviewer's verdict on one detected event. The
// authoritative review state is always re-derived from the next detail
// fetch; nothing is mutated locally.
func (c *Client) ReviewEvent(ctx context.Context, eventID int64, decision model.ReviewDecision) error {
	if !decision.Valid() {
		return fmt.Errorf("invalid review decision %q", decision)
	}
	resp, err := c.authed(ctx, http.MethodPost, fmt.Sprintf("/events/%d/review", eventID),
		WithOperation("review event"),
		WithJSONBody(map[string]string{"review_status": string(decision)}),
	)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newAPIError("review event", resp)
	}
	metrics.RecordReviewSubmission(string(decision))
	return nil
}

// OrgUsage fetches the organization's usage counters for the current month.
func (c *Client) OrgUsage(ctx context.Context) (*model.OrgUsage, error) {
	resp, err := c.authed(ctx, http.MethodGet, "/org/usage", WithOperation("load usage"))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load usage", resp)
	}
	var usage model.OrgUsage
	if !resp.DecodeJSON(&usage) {
		return nil, newAPIError("load usage", resp)
	}
	return &usage, nil
}

// ListTokens fetches the org's API tokens, revoked ones included.
func (c *Client) ListTokens(ctx context.Context) ([]model.APIToken, error) {
	resp, err := c.authed(ctx, http.MethodGet, "/org/tokens", WithOperation("load tokens"))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load tokens", resp)
	}
	tokens := []model.APIToken{}
	resp.DecodeJSON(&tokens)
	return tokens, nil
}

// CreateToken mints a new API token. The plaintext value in the result is
// surfaced exactly once; it cannot be retrieved again afterwards.
func (c *Client) CreateToken(ctx context.Context, name string) (*model.NewToken, error) {
	resp, err := c.authed(ctx, http.MethodPost, "/org/tokens",
		WithOperation("create token"),
		WithQuery("name", name),
	)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("create token", resp)
	}
	var token model.NewToken
	if !resp.DecodeJSON(&token) || token.Token == "" {
		return nil, newAPIError("create token", resp)
	}
	metrics.RecordTokenMutation("create")
	return &token, nil
}

// RevokeToken marks a token revoked. Revoked tokens remain listed as history.
func (c *Client) RevokeToken(ctx context.Context, tokenID int64) error {
	resp, err := c.authed(ctx, http.MethodDelete, fmt.Sprintf("/org/tokens/%d", tokenID), WithOperation("revoke token"))
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newAPIError("revoke token", resp)
	}
	metrics.RecordTokenMutation("revoke")
	return nil
}

// DataCatalog fetches the published data-pack entries for the org.
func (c *Client) DataCatalog(ctx context.Context) ([]model.CatalogItem, error) {
	resp, err := c.authed(ctx, http.MethodGet, "/org/data_catalog", WithOperation("load catalog"))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("load catalog", resp)
	}
	var payload struct {
		Items []model.CatalogItem `json:"items"`
	}
	resp.DecodeJSON(&payload)
	return payload.Items, nil
}

// UploadVideo submits one video file and returns the backend's job receipt.
func (c *Client) UploadVideo(ctx context.Context, filename string, content io.Reader) (*model.UploadReceipt, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload form: %w", err)
	}

	resp, err := c.authed(ctx, http.MethodPost, "/videos/upload",
		WithOperation("upload video"),
		WithBody(&buf, mw.FormDataContentType()),
	)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError("upload video", resp)
	}
	var receipt model.UploadReceipt
	if !resp.DecodeJSON(&receipt) {
		return nil, newAPIError("upload video", resp)
	}
	return &receipt, nil
}

// DataPackURL composes the direct download link for a job's data pack.
// The pack is downloaded by the user's browser, never fetched here.
func (c *Client) DataPackURL(jobID int64) string {
	return fmt.Sprintf("%s/jobs/%d/data_pack?format=zip", c.d.Base(), jobID)
}

// ArtifactURL composes the direct download link for one artifact.
func (c *Client) ArtifactURL(jobID int64, name string) string {
	return fmt.Sprintf("%s/jobs/%d/artifacts/%s", c.d.Base(), jobID, name)
}
