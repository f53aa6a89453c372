package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/samber/lo"
)

// TextCanvas draws charts as horizontal ASCII bars.
type TextCanvas struct {
	Out   io.Writer
	Width int
}

type textInstance struct {
	released bool
}

func (i *textInstance) Release() error {
	i.released = true
	return nil
}

func (c TextCanvas) Draw(cfg Config) (Instance, error) {
	width := c.Width
	if width <= 0 {
		width = 40
	}
	if len(cfg.Series) == 0 {
		return &textInstance{}, nil
	}
	data := cfg.Series[0].Data
	peak := lo.Max(data)
	labelWidth := lo.Max(lo.Map(cfg.Labels, func(l string, _ int) int { return len(l) }))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", cfg.Title)
	for i, label := range cfg.Labels {
		if i >= len(data) {
			break
		}
		n := 0
		if peak > 0 {
			n = int(math.Round(data[i] / peak * float64(width)))
		}
		value := strings.TrimPrefix(cfg.TooltipText(i), label+": ")
		fmt.Fprintf(&b, "%-*s | %s %s\n", labelWidth, label, strings.Repeat("#", n), value)
	}
	if _, err := io.WriteString(c.Out, b.String()); err != nil {
		return nil, err
	}
	return &textInstance{}, nil
}
