package astrea

import (
	"context"
	"testing"
)

func TestCellString(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{"abc", "abc"},
		{float64(1234.5), "1234.5"},
		{float64(100), "100"},
		{true, "true"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := cellString(tc.in); got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestNewRequiresIDs(t *testing.T) {
	if _, err := New(context.Background(), "", "Processos"); err == nil {
		t.Fatal("expected error for empty spreadsheet ID")
	}
	if _, err := New(context.Background(), "abc", ""); err == nil {
		t.Fatal("expected error for empty sheet name")
	}
}
