package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soocke/print-prep-go/domain/crop"
)

// ParseSize parses "WxH" (for example "800x600").
func ParseSize(s string) (crop.Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return crop.Size{}, fmt.Errorf("size %q: want WxH", s)
	}
	v, err := parseFloats(parts)
	if err != nil {
		return crop.Size{}, fmt.Errorf("size %q: %w", s, err)
	}
	size := crop.Size{Width: v[0], Height: v[1]}
	if !size.Valid() {
		return crop.Size{}, fmt.Errorf("size %q: dimensions must be positive", s)
	}
	return size, nil
}

// ParsePoint parses "X,Y".
func ParsePoint(s string) (crop.Point, error) {
	v, err := parseList(s, 2)
	if err != nil {
		return crop.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return crop.Point{X: v[0], Y: v[1]}, nil
}

// ParseRect parses "X,Y,W,H".
func ParseRect(s string) (crop.Rect, error) {
	v, err := parseList(s, 4)
	if err != nil {
		return crop.Rect{}, fmt.Errorf("rect %q: %w", s, err)
	}
	r := crop.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Empty() {
		return crop.Rect{}, fmt.Errorf("rect %q: width and height must be positive", s)
	}
	return r, nil
}

func parseList(s string, n int) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma separated numbers", n)
	}
	return parseFloats(parts)
}

func parseFloats(parts []string) ([]float64, error) {
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
