package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// Material - одна строка спецификации материалов
type Material struct {
	ID       block.BlockID `json:"id"`
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Category string        `json:"category"`
	Count    int           `json:"count"`
}

// Level - количество блоков на одном уровне по Y
type Level struct {
	Y     int `json:"y"`
	Count int `json:"count"`
}

// Report - сводка по диаграмме
type Report struct {
	Bounds    vec.Bounds `json:"bounds"`
	Blocks    int        `json:"blocks"`
	Polygons  int        `json:"polygons"`
	Materials []Material `json:"materials"`
	Levels    []Level    `json:"levels"`
}

// Materials строит спецификацию материалов: по убыванию количества, при равенстве по имени
func Materials(o world.Oracle) []Material {
	catalog := o.Catalog()
	counts := o.BlockCounts()

	out := make([]Material, 0, len(counts))
	for id, n := range counts {
		m := Material{ID: id, Name: fmt.Sprintf("#%d", id), Label: fmt.Sprintf("#%d", id), Count: n}
		if props, ok := catalog.Get(id); ok {
			m.Name = props.Name
			m.Label = props.Label()
			m.Category = props.Category
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Build собирает полную сводку по одному снимку диаграммы.
// Подсчёт полигонов синтезирует геометрию каждого блока.
func Build(o world.Oracle) Report {
	snap := o.Snapshot()
	r := Report{
		Bounds:    snap.Bounds(),
		Materials: Materials(snap),
	}

	levels := make(map[int]int)
	for _, b := range snap.Blocks() {
		r.Blocks++
		levels[b.Pos.Y]++
		r.Polygons += len(snap.SynthesizeGeometry(b.Pos).Polygons)
	}

	for y, n := range levels {
		r.Levels = append(r.Levels, Level{Y: y, Count: n})
	}
	sort.Slice(r.Levels, func(i, j int) bool { return r.Levels[i].Y < r.Levels[j].Y })
	return r
}

// Write печатает сводку в текстовом виде
func (r Report) Write(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Границы:   %s\n", r.Bounds)
	fmt.Fprintf(&sb, "Блоков:    %s\n", humanize.Comma(int64(r.Blocks)))
	fmt.Fprintf(&sb, "Полигонов: %s\n", humanize.Comma(int64(r.Polygons)))

	if len(r.Materials) > 0 {
		sb.WriteString("\nМатериалы:\n")
		width := 0
		for _, m := range r.Materials {
			if n := len([]rune(m.Label)); n > width {
				width = n
			}
		}
		for _, m := range r.Materials {
			pad := strings.Repeat(" ", width-len([]rune(m.Label)))
			fmt.Fprintf(&sb, "  %s%s  %8s  %5.1f%%\n", m.Label, pad, humanize.Comma(int64(m.Count)), share(m.Count, r.Blocks))
		}
	}

	if len(r.Levels) > 0 {
		sb.WriteString("\nУровни:\n")
		for _, l := range r.Levels {
			fmt.Fprintf(&sb, "  y=%-4d %8s\n", l.Y, humanize.Comma(int64(l.Count)))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
