package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nhle/civic-dashboard/internal/cache"
	"github.com/nhle/civic-dashboard/internal/model"
)

// Cache endpoints for every read the views make. Each declares the tags
// its response provides; the *Tags helpers below give the tags each write
// invalidates.

func (c *Client) IssuesQuery(params url.Values) cache.Endpoint {
	return cache.Endpoint{
		Key: cache.Key("issues", params),
		Fetch: func(ctx context.Context) (any, error) {
			return c.ListIssues(ctx, params)
		},
		Provides: func(data any) []cache.Tag {
			tags := []cache.Tag{cache.General(cache.TagIssue)}
			if page, ok := data.(model.IssuePage); ok {
				for _, is := range page.Issues {
					tags = append(tags, cache.Entity(cache.TagIssue, is.ID))
				}
			}
			return tags
		},
	}
}

func (c *Client) IssueQuery(id string) cache.Endpoint {
	return cache.Endpoint{
		Key: "issue/" + id,
		Fetch: func(ctx context.Context) (any, error) {
			return c.GetIssue(ctx, id)
		},
		Provides: entityTag(cache.TagIssue, id),
	}
}

func (c *Client) IssueUpdatesQuery(id string) cache.Endpoint {
	return cache.Endpoint{
		Key: "issue/" + id + "/updates",
		Fetch: func(ctx context.Context) (any, error) {
			return c.IssueUpdates(ctx, id)
		},
		Provides: entityTag(cache.TagIssue, id),
	}
}

func (c *Client) NearbyQuery(center model.LatLng, radiusKm float64) cache.Endpoint {
	params := url.Values{}
	params.Set("latitude", formatCoord(center.Latitude))
	params.Set("longitude", formatCoord(center.Longitude))
	params.Set("radius", formatCoord(radiusKm))
	return cache.Endpoint{
		Key: cache.Key("issues/nearby", params),
		Fetch: func(ctx context.Context) (any, error) {
			return c.NearbyIssues(ctx, center, radiusKm)
		},
		Provides: generalTag(cache.TagIssue),
	}
}

func (c *Client) AnalyticsQuery(params url.Values) cache.Endpoint {
	return cache.Endpoint{
		Key: cache.Key("analytics", params),
		Fetch: func(ctx context.Context) (any, error) {
			return c.Analytics(ctx, params)
		},
		Provides: generalTag(cache.TagAnalytics),
	}
}

func (c *Client) MeQuery() cache.Endpoint {
	return cache.Endpoint{
		Key: "me",
		Fetch: func(ctx context.Context) (any, error) {
			return c.Me(ctx)
		},
		Provides: generalTag(cache.TagUser),
	}
}

func (c *Client) UsersQuery(params url.Values) cache.Endpoint {
	return cache.Endpoint{
		Key: cache.Key("users", params),
		Fetch: func(ctx context.Context) (any, error) {
			return c.ListUsers(ctx, params)
		},
		Provides: func(data any) []cache.Tag {
			tags := []cache.Tag{cache.General(cache.TagUser)}
			if page, ok := data.(UserPage); ok {
				for _, u := range page.Users {
					tags = append(tags, cache.Entity(cache.TagUser, u.ID))
				}
			}
			return tags
		},
	}
}

func (c *Client) UserStatsQuery() cache.Endpoint {
	return cache.Endpoint{
		Key: "users/stats",
		Fetch: func(ctx context.Context) (any, error) {
			return c.UserStats(ctx)
		},
		Provides: generalTag(cache.TagUser),
	}
}

func (c *Client) DepartmentsQuery() cache.Endpoint {
	return cache.Endpoint{
		Key: "departments",
		Fetch: func(ctx context.Context) (any, error) {
			return c.ListDepartments(ctx)
		},
		Provides: generalTag(cache.TagDepartment),
	}
}

func (c *Client) DepartmentStatsQuery() cache.Endpoint {
	return cache.Endpoint{
		Key: "departments/stats",
		Fetch: func(ctx context.Context) (any, error) {
			return c.DepartmentStats(ctx)
		},
		Provides: generalTag(cache.TagDepartment),
	}
}

func (c *Client) LocationsByTypeQuery(t model.LocationType, parentID string) cache.Endpoint {
	params := url.Values{}
	if parentID != "" {
		params.Set("parentId", parentID)
	}
	return cache.Endpoint{
		Key: cache.Key("locations/type/"+string(t), params),
		Fetch: func(ctx context.Context) (any, error) {
			return c.LocationsByType(ctx, t, parentID)
		},
		Provides: generalTag(cache.TagLocation),
	}
}

func (c *Client) HierarchyQuery(stateID, districtID string) cache.Endpoint {
	params := url.Values{}
	if stateID != "" {
		params.Set("stateId", stateID)
	}
	if districtID != "" {
		params.Set("districtId", districtID)
	}
	return cache.Endpoint{
		Key: cache.Key("locations/hierarchy", params),
		Fetch: func(ctx context.Context) (any, error) {
			return c.Hierarchy(ctx, stateID, districtID)
		},
		Provides: generalTag(cache.TagLocation),
	}
}

// IssueCollectionTags is invalidated by creating or deleting an issue.
func IssueCollectionTags() []cache.Tag {
	return []cache.Tag{cache.General(cache.TagIssue), cache.General(cache.TagAnalytics)}
}

// IssueTags is invalidated by any write to one issue.
func IssueTags(id string) []cache.Tag {
	return []cache.Tag{
		cache.Entity(cache.TagIssue, id),
		cache.General(cache.TagIssue),
		cache.General(cache.TagAnalytics),
	}
}

// UserTags is invalidated by writes to a user. An empty id means the
// collection.
func UserTags(id string) []cache.Tag {
	if id == "" {
		return []cache.Tag{cache.General(cache.TagUser)}
	}
	return []cache.Tag{cache.Entity(cache.TagUser, id), cache.General(cache.TagUser)}
}

// DepartmentTags is invalidated by any department write.
func DepartmentTags() []cache.Tag {
	return []cache.Tag{cache.General(cache.TagDepartment)}
}

func generalTag(t cache.TagType) func(any) []cache.Tag {
	return func(any) []cache.Tag { return []cache.Tag{cache.General(t)} }
}

func entityTag(t cache.TagType, id string) func(any) []cache.Tag {
	return func(any) []cache.Tag { return []cache.Tag{cache.Entity(t, id)} }
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
