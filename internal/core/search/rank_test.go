package search

import (
	"reflect"
	"testing"

	"github.com/depotctl/depotctl/internal/domain"
)

func files(names ...string) []domain.Suggestion {
	var s []domain.Suggestion
	for _, n := range names {
		s = append(s, domain.Suggestion{Name: n, Type: domain.EntryTypeFile})
	}
	return s
}

func names(s []domain.Suggestion) []string {
	var out []string
	for _, x := range s {
		out = append(out, x.Name)
	}
	return out
}

func TestRank_TierOrder(t *testing.T) {
	candidates := files("myreport.txt", "report_final.docx", "Report.docx", "unrelated.pdf")

	// Matching is case-insensitive, so "Report.docx" is a prefix match
	// like "report_final.docx"; "myreport.txt" is substring only.
	// Alphabetically "report." sorts before "report_" within the tier.
	got := names(Rank(candidates, "report"))
	want := []string{"Report.docx", "report_final.docx", "myreport.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
}

func TestRank_ExactFirst(t *testing.T) {
	candidates := files("notes_v2", "Notes", "notes_archive")

	got := names(Rank(candidates, "notes"))
	want := []string{"Notes", "notes_archive", "notes_v2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
}

func TestRank_CaseInsensitiveExact(t *testing.T) {
	got := Rank(files("README.md", "ReadMe"), "readme")
	if len(got) != 2 || got[0].Name != "ReadMe" {
		t.Errorf("Rank = %v, want exact match ReadMe first", names(got))
	}
}

func TestRank_DirectoriesBeforeFilesWithinTier(t *testing.T) {
	candidates := []domain.Suggestion{
		{Name: "reports.txt", Type: domain.EntryTypeFile},
		{Name: "reports", Type: domain.EntryTypeDirectory},
		{Name: "reporting", Type: domain.EntryTypeFile},
	}

	got := names(Rank(candidates, "report"))
	want := []string{"reports", "reporting", "reports.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
}

func TestRank_EmptyQuery(t *testing.T) {
	if got := Rank(files("a", "b"), "  "); got != nil {
		t.Errorf("Rank with blank query = %v, want nil", got)
	}
}

func TestMerge_DeduplicatesByNameAndDirectory(t *testing.T) {
	local := []domain.Suggestion{
		{Name: "a.txt", Directory: "Operation", Type: domain.EntryTypeFile},
	}
	server := []domain.Suggestion{
		{Name: "a.txt", Directory: "Operation", Type: domain.EntryTypeFile},
		{Name: "a.txt", Directory: "Training", Type: domain.EntryTypeFile},
	}

	got := Merge(local, server)
	if len(got) != 2 {
		t.Fatalf("Merge produced %d entries, want 2", len(got))
	}
	if got[0].Directory != "Operation" || got[1].Directory != "Training" {
		t.Errorf("Merge = %v", got)
	}
}

func TestScopeFor(t *testing.T) {
	tests := []struct {
		name      string
		container string
		path      string
		want      domain.SearchScope
	}{
		{"generic at root spans the tree", "", "", domain.SearchScope{}},
		{"generic in a folder narrows", "", "Operation/2024", domain.SearchScope{Directory: "Operation/2024"}},
		{"container at root", "Research", "Research", domain.SearchScope{Container: "Research"}},
		{"container view before navigation", "Research", "", domain.SearchScope{Container: "Research"}},
		{"container subfolder narrows", "Research", "Research/Papers", domain.SearchScope{Container: "Research", Directory: "Research/Papers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScopeFor(tt.container, tt.path); got != tt.want {
				t.Errorf("ScopeFor(%q, %q) = %+v, want %+v", tt.container, tt.path, got, tt.want)
			}
		})
	}
}
