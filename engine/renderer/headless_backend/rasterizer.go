package headless_backend

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
)

type vertex struct {
	clip  [4]float32
	color [4]float32
}

type triangle [3]vertex

// screenVertex is a vertex after the perspective divide and viewport transform.
type screenVertex struct {
	x, y  float32
	depth float32
	invW  float32
	// color premultiplied by invW for perspective correct interpolation
	color [4]float32
}

type screenTriangle struct {
	v                      [3]screenVertex
	area                   float32
	minX, maxX, minY, maxY int
}

// rasterize must be called with mu held. Rows are split into bands that are filled concurrently;
// within a band triangles are drawn in submission order so the result does not depend on scheduling.
func (h *headless) rasterize(triangles []triangle) {
	prepared := make([]screenTriangle, 0, len(triangles))
	for _, t := range triangles {
		if st, ok := h.toScreen(t); ok {
			prepared = append(prepared, st)
		}
	}
	if len(prepared) == 0 {
		return
	}

	bands := h.workers
	if bands > h.height {
		bands = h.height
	}
	rowsPerBand := (h.height + bands - 1) / bands

	var wg sync.WaitGroup
	for b := range bands {
		y0 := b * rowsPerBand
		y1 := min(y0+rowsPerBand, h.height)
		if y0 >= y1 {
			continue
		}
		wg.Add(1)
		h.pool.SubmitTask(worker.Task{
			ID: b,
			Do: func() (any, error) {
				defer wg.Done()
				for i := range prepared {
					h.fillBand(&prepared[i], y0, y1)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// toScreen projects a clip space triangle onto the color target. Triangles with a vertex at or
// behind the eye and degenerate triangles are dropped.
func (h *headless) toScreen(t triangle) (screenTriangle, bool) {
	var st screenTriangle
	w, hgt := float32(h.width), float32(h.height)
	for i, v := range t {
		if v.clip[3] <= 0 {
			return st, false
		}
		inv := 1 / v.clip[3]
		ndcX, ndcY, ndcZ := v.clip[0]*inv, v.clip[1]*inv, v.clip[2]*inv
		sv := screenVertex{
			x:     (ndcX*0.5 + 0.5) * w,
			y:     (0.5 - ndcY*0.5) * hgt,
			depth: ndcZ*0.5 + 0.5,
			invW:  inv,
		}
		for c := range 4 {
			sv.color[c] = v.color[c] * inv
		}
		st.v[i] = sv
	}

	st.area = edge(st.v[0].x, st.v[0].y, st.v[1].x, st.v[1].y, st.v[2].x, st.v[2].y)
	if st.area == 0 {
		return st, false
	}

	minX := min(st.v[0].x, st.v[1].x, st.v[2].x)
	maxX := max(st.v[0].x, st.v[1].x, st.v[2].x)
	minY := min(st.v[0].y, st.v[1].y, st.v[2].y)
	maxY := max(st.v[0].y, st.v[1].y, st.v[2].y)
	st.minX = max(int(math32.Floor(minX)), 0)
	st.maxX = min(int(math32.Ceil(maxX)), h.width-1)
	st.minY = max(int(math32.Floor(minY)), 0)
	st.maxY = min(int(math32.Ceil(maxY)), h.height-1)
	if st.minX > st.maxX || st.minY > st.maxY {
		return st, false
	}
	return st, true
}

// fillBand shades the pixels of rows [y0, y1) covered by the triangle.
func (h *headless) fillBand(t *screenTriangle, y0, y1 int) {
	rowStart := max(t.minY, y0)
	rowEnd := min(t.maxY+1, y1)
	a, b, c := t.v[0], t.v[1], t.v[2]

	for y := rowStart; y < rowEnd; y++ {
		py := float32(y) + 0.5
		for x := t.minX; x <= t.maxX; x++ {
			px := float32(x) + 0.5

			w0 := edge(b.x, b.y, c.x, c.y, px, py) / t.area
			w1 := edge(c.x, c.y, a.x, a.y, px, py) / t.area
			w2 := edge(a.x, a.y, b.x, b.y, px, py) / t.area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			depth := w0*a.depth + w1*b.depth + w2*c.depth
			if depth < 0 || depth > 1 {
				continue
			}
			i := y*h.width + x
			if h.baseline.DepthTest {
				if depth >= h.depth[i] {
					continue
				}
				h.depth[i] = depth
			}

			invW := w0*a.invW + w1*b.invW + w2*c.invW
			p := i * 4
			for ch := range 4 {
				v := (w0*a.color[ch] + w1*b.color[ch] + w2*c.color[ch]) / invW
				h.color[p+ch] = quantize(v)
			}
		}
	}
}

// edge is twice the signed area of the triangle (ax, ay), (bx, by), (px, py).
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
