package api

import (
	"context"
	"net/http"

	"github.com/nhle/civic-dashboard/internal/model"
)

func (c *Client) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var deps []model.Department
	err := c.do(ctx, request{method: http.MethodGet, path: "/departments"}, &deps)
	return deps, err
}

func (c *Client) GetDepartment(ctx context.Context, id string) (model.Department, error) {
	var d model.Department
	err := c.do(ctx, request{method: http.MethodGet, path: pathID("/departments", id)}, &d)
	return d, err
}

func (c *Client) CreateDepartment(ctx context.Context, in model.DepartmentInput) (model.Department, error) {
	var d model.Department
	err := c.do(ctx, request{method: http.MethodPost, path: "/departments", body: in}, &d)
	return d, err
}

func (c *Client) UpdateDepartment(ctx context.Context, id string, in model.DepartmentInput) (model.Department, error) {
	var d model.Department
	err := c.do(ctx, request{method: http.MethodPut, path: pathID("/departments", id), body: in}, &d)
	return d, err
}

func (c *Client) DeleteDepartment(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathID("/departments", id)}, nil)
}

func (c *Client) DepartmentStats(ctx context.Context) ([]model.DepartmentStats, error) {
	var stats []model.DepartmentStats
	err := c.do(ctx, request{method: http.MethodGet, path: "/departments/stats"}, &stats)
	return stats, err
}
