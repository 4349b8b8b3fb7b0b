package normalization

import (
	"strconv"
	"strings"
)

// Envelope is a rectangular bounding geometry in lon/lat degrees.
type Envelope struct {
	West  float64
	East  float64
	South float64
	North float64
}

// ParseEnvelope reads a bbox string in either accepted form:
// "ENVELOPE(west,east,north,south)" or a bare 4-number CSV in the same
// argument order. The zero-value bool is false for anything unparsable, and
// callers leave the geometry null in that case.
func ParseEnvelope(raw string) (Envelope, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Envelope{}, false
	}
	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, "ENVELOPE") {
		open := strings.Index(s, "(")
		end := strings.LastIndex(s, ")")
		if open < 0 || end < open {
			return Envelope{}, false
		}
		s = s[open+1 : end]
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Envelope{}, false
	}
	nums := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Envelope{}, false
		}
		nums[i] = f
	}
	env := Envelope{West: nums[0], East: nums[1], North: nums[2], South: nums[3]}
	if env.West > env.East || env.South > env.North {
		return Envelope{}, false
	}
	return env, true
}

func (e Envelope) Width() float64  { return e.East - e.West }
func (e Envelope) Height() float64 { return e.North - e.South }
func (e Envelope) Area() float64   { return e.Width() * e.Height() }

func (e Envelope) Intersects(o Envelope) bool {
	return e.West <= o.East && e.East >= o.West && e.South <= o.North && e.North >= o.South
}

// IntersectionArea is zero when the envelopes do not overlap.
func (e Envelope) IntersectionArea(o Envelope) float64 {
	w := minf(e.East, o.East) - maxf(e.West, o.West)
	h := minf(e.North, o.North) - maxf(e.South, o.South)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU is the intersection-over-union overlap score used for spatial
// relevance ordering.
func (e Envelope) IoU(o Envelope) float64 {
	inter := e.IntersectionArea(o)
	union := e.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
