package assets

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/marmot/engine/core"
	emath "github.com/spaghettifunk/marmot/engine/math"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// Curve is a piecewise linear function of x declared inline:
//
//	<curve name="fade" points="0,0 0.5,1 1,0" loop="true"/>
type Curve struct {
	resources.Base
	declared []mgl32.Vec2
	loop     bool

	points []mgl32.Vec2
}

func NewCurve(id resources.ID, env *resources.Env) resources.Resource {
	return &Curve{Base: resources.NewBase(id, env)}
}

func (c *Curve) Create(_ string, node *resources.Node) error {
	raw, err := node.Required("points")
	if err != nil {
		return err
	}
	points, err := parsePoints(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrBadParam, node.Source, err)
	}
	loop, err := node.Bool("loop", false)
	if err != nil {
		return err
	}
	c.declared = points
	c.loop = loop
	return nil
}

func parsePoints(raw string) ([]mgl32.Vec2, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("curve has no points")
	}
	points := make([]mgl32.Vec2, 0, len(fields))
	for i, f := range fields {
		xy := strings.Split(f, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("point %d: expected x,y got %q", i, f)
		}
		var p mgl32.Vec2
		for j, v := range xy {
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
			if err != nil {
				return nil, fmt.Errorf("point %d: %q is not a number", i, v)
			}
			p[j] = float32(n)
		}
		if i > 0 && p.X() <= points[i-1].X() {
			return nil, fmt.Errorf("point %d: x must be strictly increasing", i)
		}
		points = append(points, p)
	}
	return points, nil
}

func (c *Curve) Load() error {
	return c.DriveLoad(func() error {
		c.points = make([]mgl32.Vec2, len(c.declared))
		copy(c.points, c.declared)
		c.Track(int64(len(c.points)) * 8)
		return nil
	})
}

func (c *Curve) Unload() error {
	return c.DriveUnload(func() error {
		c.Release(int64(len(c.points)) * 8)
		c.points = nil
		return nil
	})
}

func (c *Curve) Loop() bool { return c.loop }

// Points is empty unless the curve is loaded.
func (c *Curve) Points() []mgl32.Vec2 { return c.points }

// Evaluate samples the curve at x. Outside the declared range the curve is
// clamped, or wrapped when it loops. An unloaded curve evaluates to 0.
func (c *Curve) Evaluate(x float32) float32 {
	n := len(c.points)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return c.points[0].Y()
	}
	first, last := c.points[0].X(), c.points[n-1].X()
	if c.loop {
		span := last - first
		x = first + float32(math.Mod(float64(x-first), float64(span)))
		if x < first {
			x += span
		}
	}
	x = emath.Clamp(x, first, last)
	for i := 1; i < n; i++ {
		a, b := c.points[i-1], c.points[i]
		if x <= b.X() {
			return emath.Lerp(a.Y(), b.Y(), emath.InverseLerp(a.X(), b.X(), x))
		}
	}
	return c.points[n-1].Y()
}
