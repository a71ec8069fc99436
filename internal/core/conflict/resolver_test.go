package conflict

import (
	"errors"
	"reflect"
	"testing"

	"github.com/depotctl/depotctl/internal/domain"
)

func listing(names ...string) []domain.Entry {
	var entries []domain.Entry
	for _, n := range names {
		entries = append(entries, domain.Entry{Name: n, Type: domain.EntryTypeFile})
	}
	return entries
}

func TestDetect(t *testing.T) {
	existing := listing("a.txt", "b.txt")

	got := Detect(existing, []string{"c.txt", "b.txt", "a.txt", "b.txt"})
	want := []string{"a.txt", "b.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Detect = %v, want %v", got, want)
	}
}

func TestDetect_NoCollisions(t *testing.T) {
	if got := Detect(listing("a.txt"), []string{"b.txt"}); got != nil {
		t.Errorf("Detect = %v, want nil", got)
	}
}

func TestPlan_NoConflictProceedsWithDefaults(t *testing.T) {
	plan := NewPlan(domain.OpUpload, "Operation/2024", listing("other.txt"), []string{"new.txt"})

	if plan.HasConflicts() {
		t.Fatal("unexpected conflict")
	}
	if err := plan.Ready(); err != nil {
		t.Fatalf("plan should be ready without a decision: %v", err)
	}

	out := plan.Outgoing()
	if len(out) != 1 {
		t.Fatalf("expected 1 outgoing item, got %d", len(out))
	}
	overwrite, skip := out[0].Flags()
	if overwrite || skip {
		t.Errorf("default flags = overwrite:%v skip:%v, want both false", overwrite, skip)
	}
}

func TestPlan_ConflictRequiresResolution(t *testing.T) {
	plan := NewPlan(domain.OpUpload, "Operation", listing("report.txt"), []string{"report.txt"})

	if !plan.HasConflicts() {
		t.Fatal("expected a conflict")
	}
	if err := plan.Ready(); !errors.Is(err, domain.ErrUnresolvedConflict) {
		t.Fatalf("expected ErrUnresolvedConflict, got %v", err)
	}
}

func TestPlan_Overwrite(t *testing.T) {
	plan := NewPlan(domain.OpUpload, "Operation", listing("report.txt"), []string{"report.txt"})
	plan.Apply(domain.ResolutionOverwrite)

	if err := plan.Ready(); err != nil {
		t.Fatalf("plan not ready: %v", err)
	}
	out := plan.Outgoing()
	if len(out) != 1 {
		t.Fatalf("expected 1 outgoing item, got %d", len(out))
	}
	overwrite, skip := out[0].Flags()
	if !overwrite || skip {
		t.Errorf("flags = overwrite:%v skip:%v, want overwrite only", overwrite, skip)
	}
}

func TestPlan_Skip(t *testing.T) {
	plan := NewPlan(domain.OpUpload, "Operation", listing("report.txt"), []string{"report.txt"})
	plan.Apply(domain.ResolutionSkip)

	if got := plan.Outgoing(); len(got) != 0 {
		t.Errorf("skipped conflict still outgoing: %v", got)
	}
}

func TestPlan_KeepBoth(t *testing.T) {
	plan := NewPlan(domain.OpCopy, "Operation", listing("report.txt"), []string{"report.txt"})
	plan.Apply(domain.ResolutionKeepBoth)

	out := plan.Outgoing()
	if len(out) != 1 {
		t.Fatalf("expected 1 outgoing item, got %d", len(out))
	}
	overwrite, skip := out[0].Flags()
	if overwrite || skip {
		t.Errorf("keep-both flags = overwrite:%v skip:%v, want both false", overwrite, skip)
	}
}

// Batch semantics: the uniform decision touches only the conflicting
// subset; clean items in the same batch always go out with defaults.
func TestPlan_BatchSkipConflictsOnly(t *testing.T) {
	existing := listing("a.txt", "c.txt")
	plan := NewPlan(domain.OpUpload, "Training", existing, []string{"a.txt", "b.txt", "c.txt", "d.txt"})

	if got := plan.Conflicts(); !reflect.DeepEqual(got, []string{"a.txt", "c.txt"}) {
		t.Fatalf("Conflicts = %v", got)
	}

	plan.Apply(domain.ResolutionSkip)
	out := plan.Outgoing()
	if len(out) != 2 {
		t.Fatalf("expected 2 outgoing items, got %d", len(out))
	}
	if out[0].Name != "b.txt" || out[1].Name != "d.txt" {
		t.Errorf("outgoing = %v", out)
	}
}

func TestPlan_BatchOverwriteAll(t *testing.T) {
	existing := listing("a.txt", "c.txt")
	plan := NewPlan(domain.OpUpload, "Training", existing, []string{"a.txt", "b.txt", "c.txt"})
	plan.Apply(domain.ResolutionOverwrite)

	out := plan.Outgoing()
	if len(out) != 3 {
		t.Fatalf("expected 3 outgoing items, got %d", len(out))
	}
	for _, it := range out {
		overwrite, skip := it.Flags()
		if skip {
			t.Errorf("%s: skip flag set", it.Name)
		}
		if it.Conflict && !overwrite {
			t.Errorf("%s: conflicting item missing overwrite", it.Name)
		}
		if !it.Conflict && overwrite {
			t.Errorf("%s: clean item must not overwrite", it.Name)
		}
	}
}

func TestNewDegradedPlan(t *testing.T) {
	plan := NewDegradedPlan(domain.OpMove, "Research", []string{"x.txt"})

	if !plan.Degraded {
		t.Error("plan not flagged degraded")
	}
	if plan.HasConflicts() {
		t.Error("degraded plan must not mark conflicts")
	}
	if err := plan.Ready(); err != nil {
		t.Errorf("degraded plan should be ready: %v", err)
	}
	overwrite, skip := plan.Outgoing()[0].Flags()
	if overwrite || skip {
		t.Errorf("degraded flags = overwrite:%v skip:%v, want keep-both", overwrite, skip)
	}
}

// The payload invariant: no resolution may ever raise both flags.
func TestResolutionFlags_MutualExclusion(t *testing.T) {
	for _, r := range []domain.Resolution{domain.ResolutionOverwrite, domain.ResolutionKeepBoth, domain.ResolutionSkip} {
		overwrite, skip := r.Flags()
		if overwrite && skip {
			t.Errorf("%s: both flags set", r)
		}
	}
}
