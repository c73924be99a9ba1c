package tui

import (
	"math"
	"strings"

	"github.com/san-kum/attractor/internal/dynamo"
)

// trail keeps the most recent positions and draws their x-y projection,
// rescaling to the bounds seen so far.
type trail struct {
	points []dynamo.State
	limit  int

	minX, maxX float64
	minY, maxY float64
}

func newTrail(limit int) *trail {
	return &trail{
		limit: limit,
		minX:  math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
}

func (t *trail) push(p dynamo.State) {
	t.points = append(t.points, p)
	if len(t.points) > t.limit {
		t.points = t.points[len(t.points)-t.limit:]
	}
	t.minX, t.maxX = math.Min(t.minX, p[0]), math.Max(t.maxX, p[0])
	t.minY, t.maxY = math.Min(t.minY, p[1]), math.Max(t.maxY, p[1])
}

func (t *trail) render(width, height int) string {
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	if len(t.points) > 0 {
		rx, ry := t.maxX-t.minX, t.maxY-t.minY
		if rx == 0 {
			rx = 1
		}
		if ry == 0 {
			ry = 1
		}
		half := len(t.points) / 2
		for i, p := range t.points {
			col := int((p[0] - t.minX) / rx * float64(width-1))
			row := height - 1 - int((p[1]-t.minY)/ry*float64(height-1))
			if row < 0 || row >= height || col < 0 || col >= width {
				continue
			}
			switch {
			case i == len(t.points)-1:
				grid[row][col] = '@'
			case i < half:
				grid[row][col] = '.'
			default:
				grid[row][col] = 'o'
			}
		}
	}

	var sb strings.Builder
	for i, row := range grid {
		line := string(row)
		line = strings.ReplaceAll(line, ".", trailOld.Render("."))
		line = strings.ReplaceAll(line, "o", trailNew.Render("o"))
		sb.WriteString(line)
		if i < len(grid)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
