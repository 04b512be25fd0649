package repl

import "testing"

var candidates = []string{
	"ComputeInstance",
	"Database",
	"NetworkService",
	"StorageBucket",
	"make_tags",
}

func TestWordAt(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		want   string
	}{
		{"empty", "", 0, ""},
		{"whole word", "Database", 8, "Database"},
		{"mid word", "Database", 4, "Database"},
		{"second word", "x + Data", 8, "Data"},
		{"after space", "x + ", 4, ""},
		{"dotted", "var.region", 10, "var.region"},
		{"cursor past end", "abc", 10, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, _, _ := wordAt(tt.input, tt.cursor)
			if word != tt.want {
				t.Errorf("wordAt(%q, %d) = %q, want %q",
					tt.input, tt.cursor, word, tt.want)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		want       string
		wantCursor int
	}{
		{
			name:       "prefix",
			input:      "Datab",
			cursor:     5,
			want:       "Database",
			wantCursor: 8,
		},
		{
			name:       "subsequence",
			input:      "mktags",
			cursor:     6,
			want:       "make_tags",
			wantCursor: 9,
		},
		{
			name:       "mid expression",
			input:      "1 + Stor * 2",
			cursor:     8,
			want:       "1 + StorageBucket * 2",
			wantCursor: 17,
		},
		{
			name:       "no match",
			input:      "zzz",
			cursor:     3,
			want:       "zzz",
			wantCursor: 3,
		},
		{
			name:       "dotted path untouched",
			input:      "var.region",
			cursor:     10,
			want:       "var.region",
			wantCursor: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cursor := complete(candidates, tt.input, tt.cursor)
			if got != tt.want || cursor != tt.wantCursor {
				t.Errorf("complete(%q, %d) = (%q, %d), want (%q, %d)",
					tt.input, tt.cursor, got, cursor, tt.want, tt.wantCursor)
			}
		})
	}
}

func TestCompletionBarEmpty(t *testing.T) {
	if bar := completionBar(candidates, "zzz"); bar != "" {
		t.Errorf("bar = %q, want empty", bar)
	}

	if bar := completionBar(candidates, ""); bar != "" {
		t.Errorf("bar for empty input = %q, want empty", bar)
	}
}

func TestCompletionBarMatches(t *testing.T) {
	bar := completionBar(candidates, "x = Data")
	if bar == "" {
		t.Fatal("expected candidate bar")
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, "null"},
		{"string", "web", `"web"`},
		{"int float", float64(42), "42"},
		{"fraction", 2.5, "2.5"},
		{"bool", true, "true"},
		{"list", []any{float64(1), "a"}, `[1, "a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatResult(tt.in); got != tt.want {
				t.Errorf("formatResult(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
