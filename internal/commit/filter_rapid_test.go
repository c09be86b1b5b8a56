package commit

import (
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// --- Generators ---

func genRecord() *rapid.Generator[Record] {
	return rapid.Custom(func(t *rapid.T) Record {
		secs := rapid.Int64Range(0, 2_000_000_000).Draw(t, "secs")
		return Record{
			Hash:        rapid.StringMatching(`[0-9a-f]{40}`).Draw(t, "hash"),
			AuthorName:  rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,15}`).Draw(t, "name"),
			AuthorEmail: rapid.StringMatching(`[a-z]{1,8}@[a-z]{1,8}\.com`).Draw(t, "email"),
			Date:        time.Unix(secs, 0).UTC(),
		}
	})
}

func TestRapidFilter_EmptyAcceptsEverything(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := genRecord().Draw(t, "record")
		if !(Filter{}).Matches(rec) {
			t.Fatalf("empty filter rejected %+v", rec)
		}
	})
}

func TestRapidFilter_UsernameIgnoresCase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := genRecord().Draw(t, "record")
		upper := rapid.Bool().Draw(t, "upper")

		name := strings.ToLower(rec.AuthorName)
		if upper {
			name = strings.ToUpper(rec.AuthorName)
		}
		if !(Filter{Username: name}).Matches(rec) {
			t.Fatalf("username %q rejected author %q", name, rec.AuthorName)
		}
		if (Filter{Username: rec.AuthorName + "x"}).Matches(rec) {
			t.Fatalf("username %q accepted author %q", rec.AuthorName+"x", rec.AuthorName)
		}
	})
}

func TestRapidFilter_DateBoundsInclusive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := genRecord().Draw(t, "record")
		before := time.Duration(rapid.Int64Range(0, 1_000_000).Draw(t, "before")) * time.Second
		after := time.Duration(rapid.Int64Range(0, 1_000_000).Draw(t, "after")) * time.Second

		since := rec.Date.Add(-before)
		until := rec.Date.Add(after)
		if !(Filter{Since: &since, Until: &until}).Matches(rec) {
			t.Fatalf("record at %v outside [%v, %v]", rec.Date, since, until)
		}

		later := rec.Date.Add(time.Nanosecond)
		if (Filter{Since: &later}).Matches(rec) {
			t.Fatalf("record at %v accepted with since %v", rec.Date, later)
		}
	})
}

func TestRapidPathFilter_NeverAddsPaths(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := rapid.SliceOf(rapid.StringMatching(`[a-z]{1,5}(/[a-z]{1,5}){0,3}\.(go|md|txt)`)).Draw(t, "paths")
		pf := PathFilter{
			Include: rapid.SliceOfN(rapid.SampledFrom([]string{"**/*.go", "*.md", "a/**"}), 0, 2).Draw(t, "include"),
			Exclude: rapid.SliceOfN(rapid.SampledFrom([]string{"**/*.txt", "b/**"}), 0, 2).Draw(t, "exclude"),
		}

		got := pf.Apply(paths)
		if len(got) > len(paths) {
			t.Fatalf("Apply returned %d paths from %d", len(got), len(paths))
		}
		i := 0
		for _, p := range got {
			for i < len(paths) && paths[i] != p {
				i++
			}
			if i == len(paths) {
				t.Fatalf("Apply reordered or invented path %q", p)
			}
			i++
		}
	})
}
