package chart

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
)

// FormatValue writes v the way tick labels of the given format read.
func FormatValue(f AxisFormat, v float64) string {
	switch f {
	case FormatCurrency:
		sign := ""
		if v < 0 {
			sign, v = "-", -v
		}
		switch {
		case v >= 1e9:
			return sign + "$" + trimZeros(humanize.FormatFloat("#,###.#", v/1e9)) + "B"
		case v >= 1e6:
			return sign + "$" + trimZeros(humanize.FormatFloat("#,###.#", v/1e6)) + "M"
		default:
			return sign + "$" + humanize.FormatFloat("#,###.", v)
		}
	case FormatPercent:
		return trimZeros(humanize.FormatFloat("#,###.#", v*100)) + "%"
	case FormatCount:
		return humanize.Comma(int64(math.Round(v)))
	case FormatYear:
		return strconv.Itoa(int(math.Round(v)))
	default:
		return trimZeros(humanize.FormatFloat("#,###.##", v))
	}
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// formatTicker relabels the default ticks.
type formatTicker struct {
	format AxisFormat
}

func (t formatTicker) Ticks(lo, hi float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i := range ticks {
		if ticks[i].IsMinor() {
			continue
		}
		ticks[i].Label = FormatValue(t.format, ticks[i].Value)
	}
	return ticks
}

// yearTicker marks whole years only, thinning to at most maxTicks labels.
type yearTicker struct {
	maxTicks int
}

func (t yearTicker) Ticks(lo, hi float64) []plot.Tick {
	first, last := int(math.Ceil(lo)), int(math.Floor(hi))
	if last < first {
		return nil
	}
	n := max(t.maxTicks, 2)
	step := 1
	for (last-first)/step+1 > n {
		step++
	}
	var ticks []plot.Tick
	for y := first; y <= last; y++ {
		label := ""
		if (y-first)%step == 0 {
			label = strconv.Itoa(y)
		}
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: label})
	}
	return ticks
}

// categoryTicks labels integer positions with level names.
func categoryTicks(levels []string) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(levels))
	for i, l := range levels {
		ticks[i] = plot.Tick{Value: float64(i), Label: l}
	}
	return ticks
}

func tickerFor(f AxisFormat) plot.Ticker {
	if f == FormatYear {
		return yearTicker{maxTicks: 8}
	}
	return formatTicker{format: f}
}
