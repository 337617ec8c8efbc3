// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package selection

import (
	"sync"
	"testing"
)

func TestNormalizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "lowercase passthrough", value: "calme", want: "calme"},
		{name: "uppercase folds", value: "CALME", want: "calme"},
		{name: "surrounding space trimmed", value: "  calme\t", want: "calme"},
		{name: "acute accent stripped", value: "Sébastien", want: "sebastien"},
		{name: "grave and acute in one word", value: "Soirée", want: "soiree"},
		{name: "circumflex stripped", value: "fête", want: "fete"},
		{name: "cedilla stripped", value: "Français", want: "francais"},
		{name: "sharp s folds to ss", value: "straße", want: "strasse"},
		{name: "interior space kept", value: "Déjà Vu", want: "deja vu"},
		{name: "empty", value: "", want: ""},
		{name: "blank", value: "   ", want: ""},
		{name: "digits untouched", value: "Top 50", want: "top 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeToken(tt.value); got != tt.want {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalizeTokenConcurrent(t *testing.T) {
	t.Parallel()

	// The folding transformer is rebuilt per call; hammering it from many
	// goroutines must never race or corrupt output.
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if got := NormalizeToken("Sébastien"); got != "sebastien" {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("NormalizeToken under concurrency = %q, want %q", got, "sebastien")
	}
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "plain list", value: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "trims parts", value: " a , b ", want: []string{"a", "b"}},
		{name: "drops empty parts", value: "a,,b,", want: []string{"a", "b"}},
		{name: "single value", value: "calme", want: []string{"calme"}},
		{name: "only separators", value: ",,,", want: nil},
		{name: "empty input", value: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SplitCSV(tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitCSV(%q) = %v, want %v", tt.value, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitCSV(%q)[%d] = %q, want %q", tt.value, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeValueSet(t *testing.T) {
	t.Parallel()

	sorted, set := normalizeValueSet([]string{"SOFT", "calm", "soft", "Câlme", ""})
	want := []string{"calm", "calme", "soft"}
	if len(sorted) != len(want) {
		t.Fatalf("sorted = %v, want %v", sorted, want)
	}
	for i := range want {
		if sorted[i] != want[i] {
			t.Errorf("sorted[%d] = %q, want %q", i, sorted[i], want[i])
		}
	}
	for _, v := range want {
		if _, ok := set[v]; !ok {
			t.Errorf("set missing %q", v)
		}
	}

	sorted, set = normalizeValueSet([]string{"", "  "})
	if sorted != nil || set != nil {
		t.Errorf("all-blank input gave %v, %v, want nil, nil", sorted, set)
	}
}
