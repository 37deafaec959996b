package app

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/cache"
	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/store"
	"github.com/nhle/civic-dashboard/internal/ui/issuelist"
	"github.com/nhle/civic-dashboard/internal/ui/mapview"
)

// backend bundles what every view adapter needs: reads go through the
// query cache, writes through cache.Mutate, and the local snapshot answers
// when the server cannot be reached.
type backend struct {
	client *api.Client
	cache  *cache.Cache
	store  store.Store
	log    logrus.FieldLogger

	mapPageSize int
}

// Issues serves the issue list.
func (b *backend) Issues(ctx context.Context, s filter.State) (issuelist.Page, error) {
	page, err := cache.FetchAs[model.IssuePage](ctx, b.cache, b.client.IssuesQuery(filter.Params(s)))
	if err == nil {
		return issuelist.Page{IssuePage: page}, nil
	}
	if !api.IsTransport(err) {
		return issuelist.Page{}, err
	}

	issues, serr := b.store.GetIssues(ctx, snapshotFilter(s))
	if serr != nil || len(issues) == 0 {
		if serr != nil {
			b.log.WithError(serr).Warn("reading issue snapshot")
		}
		return issuelist.Page{}, err
	}
	b.log.WithError(err).Info("server unreachable, serving issue snapshot")
	return issuelist.Page{IssuePage: paginate(issues, s.Page, s.Limit), Stale: true}, nil
}

// MapIssues serves the map's issue set. Category, status, priority and
// radius are applied by the map itself.
func (b *backend) MapIssues(ctx context.Context, s filter.State) (mapview.Snapshot, error) {
	page, err := cache.FetchAs[model.IssuePage](ctx, b.cache, b.client.IssuesQuery(filter.MapParams(s, b.mapPageSize)))
	if err == nil {
		return mapview.Snapshot{Issues: page.Issues}, nil
	}
	if !api.IsTransport(err) {
		return mapview.Snapshot{}, err
	}

	f := store.IssueFilter{Limit: b.mapPageSize}
	if s.Search != "" {
		q := s.Search
		f.Query = &q
	}
	issues, serr := b.store.GetIssues(ctx, f)
	if serr != nil || len(issues) == 0 {
		return mapview.Snapshot{}, err
	}
	return mapview.Snapshot{Issues: issues, Stale: true}, nil
}

// Analytics serves the dashboard.
func (b *backend) Analytics(ctx context.Context) (model.Analytics, error) {
	return cache.FetchAs[model.Analytics](ctx, b.cache, b.client.AnalyticsQuery(nil))
}

// Locations serves the area picker, saving what it fetches so the picker
// keeps working offline.
func (b *backend) Locations(ctx context.Context, t model.LocationType, parentID string) ([]model.Location, error) {
	locs, err := cache.FetchAs[[]model.Location](ctx, b.cache, b.client.LocationsByTypeQuery(t, parentID))
	if err == nil {
		if serr := b.store.UpsertLocations(ctx, locs); serr != nil {
			b.log.WithError(serr).Warn("saving locations")
		}
		return locs, nil
	}
	if !api.IsTransport(err) {
		return nil, err
	}
	saved, serr := b.store.GetLocations(ctx, t, parentID)
	if serr != nil || len(saved) == 0 {
		return nil, err
	}
	return saved, nil
}

// Issue loads one issue and its progress updates. When the server is
// unreachable the saved copy is returned with the transport error.
func (b *backend) Issue(ctx context.Context, id string) (*model.Issue, []model.IssueUpdate, error) {
	is, err := cache.FetchAs[model.Issue](ctx, b.cache, b.client.IssueQuery(id))
	if err != nil {
		if api.IsTransport(err) {
			if saved, serr := b.store.GetIssueByID(ctx, id); serr == nil && saved != nil {
				return saved, nil, err
			}
		}
		return nil, nil, err
	}
	updates, uerr := cache.FetchAs[[]model.IssueUpdate](ctx, b.cache, b.client.IssueUpdatesQuery(id))
	if uerr != nil {
		b.log.WithError(uerr).WithField("issue", id).Warn("loading issue updates")
	}
	return &is, updates, nil
}

// === Users ===

func (b *backend) ListUsers(ctx context.Context, params url.Values) (api.UserPage, error) {
	return cache.FetchAs[api.UserPage](ctx, b.cache, b.client.UsersQuery(params))
}

func (b *backend) UserStats(ctx context.Context) (model.UserStats, error) {
	return cache.FetchAs[model.UserStats](ctx, b.cache, b.client.UserStatsQuery())
}

func (b *backend) CreateUser(ctx context.Context, reg api.Registration) (model.User, error) {
	var u model.User
	err := b.cache.Mutate(ctx, api.UserTags(""), func(ctx context.Context) error {
		var err error
		u, err = b.client.CreateUser(ctx, reg)
		return err
	})
	return u, err
}

func (b *backend) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	var u model.User
	err := b.cache.Mutate(ctx, api.UserTags(id), func(ctx context.Context) error {
		var err error
		u, err = b.client.UpdateUser(ctx, id, patch)
		return err
	})
	return u, err
}

func (b *backend) DeleteUser(ctx context.Context, id string) error {
	return b.cache.Mutate(ctx, api.UserTags(id), func(ctx context.Context) error {
		return b.client.DeleteUser(ctx, id)
	})
}

// === Departments ===

func (b *backend) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return cache.FetchAs[[]model.Department](ctx, b.cache, b.client.DepartmentsQuery())
}

func (b *backend) DepartmentStats(ctx context.Context) ([]model.DepartmentStats, error) {
	return cache.FetchAs[[]model.DepartmentStats](ctx, b.cache, b.client.DepartmentStatsQuery())
}

func (b *backend) CreateDepartment(ctx context.Context, in model.DepartmentInput) (model.Department, error) {
	var d model.Department
	err := b.cache.Mutate(ctx, api.DepartmentTags(), func(ctx context.Context) error {
		var err error
		d, err = b.client.CreateDepartment(ctx, in)
		return err
	})
	return d, err
}

func (b *backend) UpdateDepartment(ctx context.Context, id string, in model.DepartmentInput) (model.Department, error) {
	var d model.Department
	err := b.cache.Mutate(ctx, api.DepartmentTags(), func(ctx context.Context) error {
		var err error
		d, err = b.client.UpdateDepartment(ctx, id, in)
		return err
	})
	return d, err
}

func (b *backend) DeleteDepartment(ctx context.Context, id string) error {
	return b.cache.Mutate(ctx, api.DepartmentTags(), func(ctx context.Context) error {
		return b.client.DeleteDepartment(ctx, id)
	})
}

// === Profile ===

func (b *backend) UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, error) {
	var u model.User
	err := b.cache.Mutate(ctx, api.UserTags(""), func(ctx context.Context) error {
		var err error
		u, err = b.client.UpdateProfile(ctx, patch)
		return err
	})
	return u, err
}

func (b *backend) ChangePassword(ctx context.Context, current, next string) error {
	return b.client.ChangePassword(ctx, current, next)
}

// snapshotFilter maps the filter record onto the snapshot query. Location
// and department predicates have no snapshot column and are dropped.
func snapshotFilter(s filter.State) store.IssueFilter {
	f := store.IssueFilter{
		Categories: s.Categories,
		Statuses:   s.Statuses,
		Priorities: s.Priorities,
		SortDesc:   s.SortOrder == filter.Desc,
	}
	if s.Search != "" {
		q := s.Search
		f.Query = &q
	}
	switch s.SortBy {
	case filter.SortCreatedAt:
		f.SortBy = "created_at"
	case filter.SortUpdatedAt:
		f.SortBy = "updated_at"
	default:
		f.SortBy = string(s.SortBy)
	}
	return f
}

// paginate cuts one page out of issues and fills in the summary the server
// would have sent.
func paginate(issues []model.Issue, page, limit int) model.IssuePage {
	if limit <= 0 {
		limit = filter.DefaultLimit
	}
	page = max(page, 1)
	total := len(issues)
	pages := max((total+limit-1)/limit, 1)

	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return model.IssuePage{
		Issues: issues[start:end],
		Pagination: model.Pagination{
			CurrentPage:  page,
			TotalPages:   pages,
			TotalItems:   total,
			ItemsPerPage: limit,
			HasNextPage:  page < pages,
			HasPrevPage:  page > 1,
		},
	}
}
