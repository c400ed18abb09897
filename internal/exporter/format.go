package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatFloat writes the shortest representation that parses back to f
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatNullable writes a nullable number; null is an empty cell
func formatNullable(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// parseFloat parses a required numeric cell. NaN and infinities are rejected;
// the writer never produces them.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// parseNullable parses a nullable numeric cell; an empty cell is null
func parseNullable(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
