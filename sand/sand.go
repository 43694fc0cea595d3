// sand is the obstacle field: a dense occupancy grid over the playable area,
// painted by strokes and queried by windowed density.
package sand

import (
	"math"

	"sandcar/config"
	"sandcar/models"

	"gonum.org/v1/gonum/mat"
)

// Stroke is one painted segment, kept so viewers can redraw the field.
type Stroke struct {
	A models.Vec2
	B models.Vec2
}

// Field is a width x height matrix indexed (x, y). Cells only ever go from 0 to 1
// by painting; Clear resets the whole grid. Every window is clipped to the grid
// before slicing, so no query or paint can fail.
type Field struct {
	width, height int
	brush         int
	cells         *mat.Dense

	// strokes is append-only until Clear replaces it, so published prefixes of it
	// are never written again.
	strokes []Stroke
	version int
}

func NewField(cfg config.FieldConfig) *Field {
	return &Field{
		width:  cfg.Width,
		height: cfg.Height,
		brush:  cfg.BrushHalfWidth,
		cells:  mat.NewDense(cfg.Width, cfg.Height, nil),
	}
}

func (field *Field) Width() int  { return field.width }
func (field *Field) Height() int { return field.height }

// Contains reports whether p lies inside [0,width) x [0,height).
func (field *Field) Contains(p models.Vec2) bool {
	return p.X >= 0 && p.X < float64(field.width) &&
		p.Y >= 0 && p.Y < float64(field.height)
}

// window returns the clipped view [x0,x1) x [y0,y1) of the grid, or nil when
// the clipped window is empty.
func (field *Field) window(x0, x1, y0, y1 int) *mat.Dense {
	x0, x1 = field.clipX(x0), field.clipX(x1)
	y0, y1 = field.clipY(y0), field.clipY(y1)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}
	return field.cells.Slice(x0, x1, y0, y1).(*mat.Dense)
}

func fill(_, _ int, _ float64) float64 { return 1 }

// Paint rasterizes a thick line from a to b. The stroke is sampled int(|b-a|) times
// at t=i/n for i in [0,n), so a zero-length stroke paints nothing and the end point
// belongs to the next stroke of a drag. Each in-field sample stamps the square
// [x-brush, x+brush) x [y-brush, y+brush); out-of-field samples are skipped.
func (field *Field) Paint(a, b models.Vec2) {
	n := int(a.Dist(b))
	if n == 0 {
		return
	}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		x := int(a.X*(1-t) + b.X*t)
		y := int(a.Y*(1-t) + b.Y*t)
		if x < 0 || x >= field.width || y < 0 || y >= field.height {
			continue
		}
		if stamp := field.window(x-field.brush, x+field.brush, y-field.brush, y+field.brush); stamp != nil {
			stamp.Apply(fill, stamp)
		}
	}
	field.strokes = append(field.strokes, Stroke{A: a, B: b})
	field.version++
}

// Density is the number of occupied cells in [cx-half, cx+half) x [cy-half, cy+half),
// clipped to the field. A window entirely outside the field sums to 0.
func (field *Field) Density(cx, cy, half int) int {
	w := field.window(cx-half, cx+half, cy-half, cy+half)
	if w == nil {
		return 0
	}
	return int(mat.Sum(w))
}

// Occupied is the point query used to gate speed and reward. Points outside the
// field are never occupied.
func (field *Field) Occupied(p models.Vec2) bool {
	if !field.Contains(p) {
		return false
	}
	return field.cells.At(int(math.Floor(p.X)), int(math.Floor(p.Y))) > 0
}

// Clear resets every cell to unoccupied.
func (field *Field) Clear() {
	field.cells.Zero()
	field.strokes = nil
	field.version++
}

// Count is the total number of occupied cells.
func (field *Field) Count() int {
	return int(mat.Sum(field.cells))
}

// Strokes returns the strokes painted since the last Clear. The result is safe to
// hand to another goroutine: later paints never write into it.
func (field *Field) Strokes() []Stroke {
	return field.strokes[:len(field.strokes):len(field.strokes)]
}

// Version changes on every Paint and Clear.
func (field *Field) Version() int {
	return field.version
}

func (field *Field) clipX(x int) int {
	return clip(x, 0, field.width)
}

func (field *Field) clipY(y int) int {
	return clip(y, 0, field.height)
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
