package mapview

import (
	"math"

	"github.com/nhle/civic-dashboard/internal/geo"
	"github.com/nhle/civic-dashboard/internal/model"
)

const (
	minZoom = 2
	maxZoom = 18

	// kmPerDegree is the length of one degree of latitude.
	kmPerDegree = 111.32
)

// Viewport is the part of the world the plot shows.
type Viewport struct {
	Center model.LatLng
	Zoom   int
}

// Bounds is the box the viewport covers on a width x height character
// grid. Cells are treated as twice as tall as they are wide.
func (v Viewport) Bounds(width, height int) model.Bounds {
	lonSpan := 360 / math.Pow(2, float64(v.Zoom))
	latSpan := lonSpan * math.Cos(v.Center.Latitude*math.Pi/180) * float64(2*height) / float64(max(width, 1))
	return model.Bounds{
		North: v.Center.Latitude + latSpan/2,
		South: v.Center.Latitude - latSpan/2,
		East:  v.Center.Longitude + lonSpan/2,
		West:  v.Center.Longitude - lonSpan/2,
	}
}

// ZoomIn and ZoomOut return v one level closer or further, clamped.
func (v Viewport) ZoomIn() Viewport {
	v.Zoom = min(v.Zoom+1, maxZoom)
	return v
}

func (v Viewport) ZoomOut() Viewport {
	v.Zoom = max(v.Zoom-1, minZoom)
	return v
}

// zoomFor is the closest zoom whose longitude span covers lonExtent.
func zoomFor(lonExtent float64) int {
	if lonExtent <= 0 {
		return 15
	}
	z := int(math.Floor(math.Log2(360 / lonExtent)))
	return min(max(z, minZoom), maxZoom)
}

// AroundRadius frames a circle of radiusKm around center.
func AroundRadius(center model.LatLng, radiusKm float64) Viewport {
	cos := math.Max(math.Cos(center.Latitude*math.Pi/180), 0.01)
	return Viewport{Center: center, Zoom: zoomFor(2.2 * radiusKm / (kmPerDegree * cos))}
}

// Fit frames every cluster plus the user position, if any. ok is false
// when there is nothing to frame.
func Fit(clusters []geo.Cluster, user *model.LatLng) (Viewport, bool) {
	var pts []model.LatLng
	for _, c := range clusters {
		pts = append(pts, model.LatLng{Latitude: c.Latitude, Longitude: c.Longitude})
	}
	if user != nil {
		pts = append(pts, *user)
	}
	if len(pts) == 0 {
		return Viewport{}, false
	}

	b := model.Bounds{North: pts[0].Latitude, South: pts[0].Latitude, East: pts[0].Longitude, West: pts[0].Longitude}
	for _, p := range pts[1:] {
		b.North = math.Max(b.North, p.Latitude)
		b.South = math.Min(b.South, p.Latitude)
		b.East = math.Max(b.East, p.Longitude)
		b.West = math.Min(b.West, p.Longitude)
	}
	return FitBounds(b), true
}

// FitBounds frames b.
func FitBounds(b model.Bounds) Viewport {
	return Viewport{Center: b.Center(), Zoom: zoomFor((b.East - b.West) * 1.1)}
}

// cellKind decides how a plot cell is styled.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellArea
	cellRadius
	cellUser
	cellMarker
	cellSelected
)

type cell struct {
	r    rune
	kind cellKind
}

// canvas projects coordinates onto a character grid.
type canvas struct {
	width, height int
	view          model.Bounds
}

func (c canvas) project(p model.LatLng) (row, col int, ok bool) {
	if !c.view.Contains(p) {
		return 0, 0, false
	}
	x := (p.Longitude - c.view.West) / (c.view.East - c.view.West)
	y := (c.view.North - p.Latitude) / (c.view.North - c.view.South)
	col = min(int(x*float64(c.width)), c.width-1)
	row = min(int(y*float64(c.height)), c.height-1)
	return row, col, true
}

func (c canvas) unproject(row, col int) model.LatLng {
	return model.LatLng{
		Latitude:  c.view.North - (float64(row)+0.5)/float64(c.height)*(c.view.North-c.view.South),
		Longitude: c.view.West + (float64(col)+0.5)/float64(c.width)*(c.view.East-c.view.West),
	}
}

// plot draws the area box, the user's radius circle and the markers onto
// a grid. Markers are the cluster size, or '+' past nine.
func plot(c canvas, clusters []geo.Cluster, selected int, user *model.LatLng, radiusKm float64, area *model.Bounds) [][]cell {
	grid := make([][]cell, c.height)
	for i := range grid {
		grid[i] = make([]cell, c.width)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}
	set := func(row, col int, r rune, k cellKind) {
		if row >= 0 && row < c.height && col >= 0 && col < c.width && grid[row][col].kind <= k {
			grid[row][col] = cell{r: r, kind: k}
		}
	}

	if area != nil {
		for row := range c.height {
			for col := range c.width {
				p := c.unproject(row, col)
				if !area.Contains(p) {
					continue
				}
				edge := !area.Contains(c.unproject(row-1, col)) || !area.Contains(c.unproject(row+1, col)) ||
					!area.Contains(c.unproject(row, col-1)) || !area.Contains(c.unproject(row, col+1))
				if edge {
					set(row, col, '░', cellArea)
				}
			}
		}
	}

	if user != nil {
		if radiusKm > 0 {
			cellKm := (c.view.East - c.view.West) / float64(c.width) * kmPerDegree *
				math.Cos(user.Latitude*math.Pi/180)
			for row := range c.height {
				for col := range c.width {
					d := geo.DistanceKm(*user, c.unproject(row, col))
					if math.Abs(d-radiusKm) <= cellKm/2 {
						set(row, col, '·', cellRadius)
					}
				}
			}
		}
		if row, col, ok := c.project(*user); ok {
			set(row, col, '@', cellUser)
		}
	}

	for i, cl := range clusters {
		row, col, ok := c.project(model.LatLng{Latitude: cl.Latitude, Longitude: cl.Longitude})
		if !ok {
			continue
		}
		r := '+'
		if n := cl.Count(); n <= 9 {
			r = rune('0' + n)
		}
		kind := cellMarker
		if i == selected {
			kind = cellSelected
		}
		set(row, col, r, kind)
	}
	return grid
}
