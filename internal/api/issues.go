package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nhle/civic-dashboard/internal/model"
)

// ListIssues fetches one page of issues. params are built by the filter
// package.
func (c *Client) ListIssues(ctx context.Context, params url.Values) (model.IssuePage, error) {
	var page model.IssuePage
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/issues",
		query:      params,
		pagination: &page.Pagination,
	}, &page.Issues)
	return page, err
}

func (c *Client) GetIssue(ctx context.Context, id string) (model.Issue, error) {
	var issue model.Issue
	err := c.do(ctx, request{method: http.MethodGet, path: pathID("/issues", id)}, &issue)
	return issue, err
}

// CreateIssue reports a new issue. Images are uploaded in the same request.
func (c *Client) CreateIssue(ctx context.Context, in model.NewIssue) (model.Issue, error) {
	lat := formatCoord(in.Latitude)
	lon := formatCoord(in.Longitude)

	form := &multipartForm{fileField: "images", files: in.ImagePaths}
	form.add("title", in.Title)
	form.add("description", in.Description)
	form.add("category", string(in.Category))
	form.add("priority", string(in.Priority))
	form.add("latitude", lat)
	form.add("longitude", lon)
	// GeoJSON order: longitude first.
	form.add("coordinates", fmt.Sprintf("[%s,%s]", lon, lat))
	form.add("address", in.Address)
	form.add("tags", strings.Join(in.Tags, ","))
	if in.IsAnonymous {
		form.add("isAnonymous", "true")
	}

	var issue model.Issue
	err := c.do(ctx, request{method: http.MethodPost, path: "/issues/create", form: form}, &issue)
	return issue, err
}

func (c *Client) UpdateIssue(ctx context.Context, id string, patch model.IssuePatch) (model.Issue, error) {
	var issue model.Issue
	err := c.do(ctx, request{method: http.MethodPut, path: pathID("/issues", id), body: patch}, &issue)
	return issue, err
}

func (c *Client) DeleteIssue(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathID("/issues", id)}, nil)
}

// Vote casts or toggles the signed-in user's vote.
func (c *Client) Vote(ctx context.Context, id string, vote model.VoteType) (model.VoteResult, error) {
	var res model.VoteResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathID("/issues", id, "vote"),
		body:   map[string]string{"voteType": string(vote)},
	}, &res)
	return res, err
}

// NearbyIssues lists issues within radiusKm of center.
func (c *Client) NearbyIssues(ctx context.Context, center model.LatLng, radiusKm float64) ([]model.Issue, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(center.Latitude))
	q.Set("longitude", formatCoord(center.Longitude))
	if radiusKm > 0 {
		q.Set("radius", formatCoord(radiusKm))
	}
	var issues []model.Issue
	err := c.do(ctx, request{method: http.MethodGet, path: "/issues/nearby", query: q}, &issues)
	return issues, err
}

func (c *Client) AssignIssue(ctx context.Context, id, assignee, department string) (model.Issue, error) {
	body := map[string]string{"assignedTo": assignee}
	if department != "" {
		body["department"] = department
	}
	var issue model.Issue
	err := c.do(ctx, request{method: http.MethodPost, path: pathID("/issues", id, "assign"), body: body}, &issue)
	return issue, err
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status model.Status, notes string) (model.Issue, error) {
	body := map[string]string{"status": string(status)}
	if notes != "" {
		body["notes"] = notes
	}
	var issue model.Issue
	err := c.do(ctx, request{method: http.MethodPost, path: pathID("/issues", id, "status"), body: body}, &issue)
	return issue, err
}

func (c *Client) IssueUpdates(ctx context.Context, id string) ([]model.IssueUpdate, error) {
	var updates []model.IssueUpdate
	err := c.do(ctx, request{method: http.MethodGet, path: pathID("/issues", id, "updates")}, &updates)
	return updates, err
}

// NewIssueUpdate is a progress note with an optional status change and
// photos.
type NewIssueUpdate struct {
	Note       string
	Status     model.Status
	ImagePaths []string
}

func (c *Client) AddIssueUpdate(ctx context.Context, id string, in NewIssueUpdate) (model.Issue, error) {
	form := &multipartForm{fileField: "images", files: in.ImagePaths}
	form.add("note", strings.TrimSpace(in.Note))
	form.add("status", string(in.Status))

	var issue model.Issue
	err := c.do(ctx, request{method: http.MethodPost, path: pathID("/issues", id, "updates"), form: form}, &issue)
	return issue, err
}

// Analytics fetches the dashboard summary. params may narrow it by date
// range or department.
func (c *Client) Analytics(ctx context.Context, params url.Values) (model.Analytics, error) {
	var a model.Analytics
	err := c.do(ctx, request{method: http.MethodGet, path: "/analytics/dashboard", query: params}, &a)
	return a, err
}
