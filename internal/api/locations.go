package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nhle/civic-dashboard/internal/model"
)

// LocationsByType lists administrative areas of one type, optionally
// scoped to a parent area.
func (c *Client) LocationsByType(ctx context.Context, t model.LocationType, parentID string) ([]model.Location, error) {
	q := url.Values{}
	if parentID != "" {
		q.Set("parentId", parentID)
	}
	var locs []model.Location
	err := c.do(ctx, request{method: http.MethodGet, path: pathID("/locations/type", string(t)), query: q}, &locs)
	return locs, err
}

// Hierarchy returns states, plus the districts of stateID and the tehsils of
// districtID when those are given.
func (c *Client) Hierarchy(ctx context.Context, stateID, districtID string) (model.LocationHierarchy, error) {
	q := url.Values{}
	if stateID != "" {
		q.Set("stateId", stateID)
	}
	if districtID != "" {
		q.Set("districtId", districtID)
	}
	var h model.LocationHierarchy
	err := c.do(ctx, request{method: http.MethodGet, path: "/locations/hierarchy", query: q}, &h)
	return h, err
}

// Containing lists the areas whose boundary contains p. t narrows the
// result to one level when non-empty.
func (c *Client) Containing(ctx context.Context, p model.LatLng, t model.LocationType) ([]model.Location, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(p.Latitude))
	q.Set("longitude", formatCoord(p.Longitude))
	if t != "" {
		q.Set("type", string(t))
	}
	var locs []model.Location
	err := c.do(ctx, request{method: http.MethodGet, path: "/locations/containing", query: q}, &locs)
	return locs, err
}

func (c *Client) GetLocation(ctx context.Context, id string) (model.Location, error) {
	var loc model.Location
	err := c.do(ctx, request{method: http.MethodGet, path: pathID("/locations", id)}, &loc)
	return loc, err
}

func (c *Client) ListLocations(ctx context.Context, params url.Values) ([]model.Location, error) {
	var locs []model.Location
	err := c.do(ctx, request{method: http.MethodGet, path: "/locations", query: params}, &locs)
	return locs, err
}
