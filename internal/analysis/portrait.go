package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Point2 is a point of a planar projection.
type Point2 struct{ X, Y float64 }

// Project returns the trajectory seen along two axes (0 x, 1 y, 2 z).
func Project(t *dynamo.Trajectory, xAxis, yAxis int) []Point2 {
	if xAxis < 0 || xAxis > 2 || yAxis < 0 || yAxis > 2 {
		return nil
	}
	out := make([]Point2, 0, t.Len())
	for _, s := range t.Samples {
		p := s.State()
		out = append(out, Point2{X: p[xAxis], Y: p[yAxis]})
	}
	return out
}

// PoincareSection records where the trajectory crosses axis = level in
// the increasing direction, interpolating linearly between the samples on
// either side. The crossing is reported on the two remaining axes.
func PoincareSection(t *dynamo.Trajectory, axis int, level float64) []Point2 {
	if axis < 0 || axis > 2 || t.Len() < 2 {
		return nil
	}
	u, v := (axis+1)%3, (axis+2)%3

	var out []Point2
	prev := t.Samples[0].State()
	for _, s := range t.Samples[1:] {
		cur := s.State()
		if prev[axis] < level && cur[axis] >= level {
			f := (level - prev[axis]) / (cur[axis] - prev[axis])
			if math.IsNaN(f) || math.IsInf(f, 0) {
				f = 0.5
			}
			p := prev.Lerp(cur, f)
			out = append(out, Point2{X: p[u], Y: p[v]})
		}
		prev = cur
	}
	return out
}

// Plot draws points on a width×height character grid with a 10% margin,
// adding axis lines where zero is in view.
func Plot(points []Point2, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	c := newCanvas(width, height)
	for _, p := range points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		c.set(row, col, '•')
	}

	if minX <= 0 && maxX >= 0 {
		col := int(-minX / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			c.setBlank(row, col, '│')
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int(-minY/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			c.setBlank(row, col, '─')
		}
	}
	return c.String()
}

type canvas [][]rune

func newCanvas(width, height int) canvas {
	c := make(canvas, height)
	for i := range c {
		c[i] = []rune(strings.Repeat(" ", width))
	}
	return c
}

func (c canvas) set(row, col int, r rune) {
	if row >= 0 && row < len(c) && col >= 0 && col < len(c[row]) {
		c[row][col] = r
	}
}

func (c canvas) setBlank(row, col int, r rune) {
	if row >= 0 && row < len(c) && col >= 0 && col < len(c[row]) && c[row][col] == ' ' {
		c[row][col] = r
	}
}

func (c canvas) String() string {
	var sb strings.Builder
	for _, row := range c {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
