package main

import (
	"strings"
	"testing"
)

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"name=Day 1", "count=3"})
	if err != nil {
		t.Fatalf("parseVars() error = %v", err)
	}
	if vars["name"] != "Day 1" || vars["count"] != "3" {
		t.Errorf("parseVars() = %v", vars)
	}

	if _, err := parseVars([]string{"no-equals"}); err == nil {
		t.Error("parseVars() accepted a pair without '='")
	}
	if _, err := parseVars([]string{"=value"}); err == nil {
		t.Error("parseVars() accepted an empty key")
	}

	vars, err = parseVars(nil)
	if err != nil || vars != nil {
		t.Errorf("parseVars(nil) = %v, %v", vars, err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "-"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 * 1024 * 1024, "3.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"ID", "SIZE"},
		[][]string{{"abc", "1.0 KiB"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "ID") || !strings.Contains(out, "abc") {
		t.Errorf("renderTable() = %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable() with no headers should be empty")
	}
}
