package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantPage  int
		wantLimit int
		wantSkip  int64
	}{
		{"defaults", "/search", 1, DefaultLimit, 0},
		{"page two", "/search?page=2", 2, DefaultLimit, 10},
		{"custom limit", "/search?page=3&limit=5", 3, 5, 10},
		{"zero page", "/search?page=0", 1, DefaultLimit, 0},
		{"negative limit", "/search?limit=-4", 1, DefaultLimit, 0},
		{"garbage", "/search?page=abc&limit=xyz", 1, DefaultLimit, 0},
		{"capped limit", "/search?limit=500", 1, MaxLimit, 0},
		{"huge page", "/search?page=1000000000000000000&limit=50", MaxPage, 50, int64(MaxPage-1) * 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(httptest.NewRequest("GET", tt.target, nil), DefaultLimit)
			if p.Number != tt.wantPage {
				t.Errorf("page: got %d, want %d", p.Number, tt.wantPage)
			}
			if p.Limit != tt.wantLimit {
				t.Errorf("limit: got %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Skip() != tt.wantSkip {
				t.Errorf("skip: got %d, want %d", p.Skip(), tt.wantSkip)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	p := Page{Number: 1, Limit: 10}
	cases := map[int64]int64{0: 0, 1: 1, 10: 1, 11: 2, 95: 10}
	for total, want := range cases {
		if got := p.TotalPages(total); got != want {
			t.Errorf("TotalPages(%d): got %d, want %d", total, got, want)
		}
	}
}

func TestSkip_NeverNegative(t *testing.T) {
	cases := []Page{
		{Number: 0, Limit: 10},
		{Number: 5, Limit: 0},
		{Number: MaxPage, Limit: MaxLimit},
	}
	for _, p := range cases {
		if got := p.Skip(); got < 0 {
			t.Errorf("Skip(%+v): got %d", p, got)
		}
	}
}
