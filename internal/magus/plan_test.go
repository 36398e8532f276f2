package magus

import (
	"reflect"
	"testing"
)

func TestSelectFlags_BoundaryAtModernMajor(t *testing.T) {
	cases := []struct {
		major int
		want  []string
	}{
		{0, nil},
		{13, nil},
		{14, []string{"-std=gnu17"}},
		{100, []string{"-std=gnu17"}},
	}
	for _, c := range cases {
		got := selectFlags(c.major)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("selectFlags(%d) = %v, want %v", c.major, got, c.want)
		}
	}
}

func TestResolveRevision_ExplicitAlwaysWins(t *testing.T) {
	for _, major := range []int{0, 13, 14, 100} {
		if got := resolveRevision("branchX", major); got != "branchX" {
			t.Errorf("resolveRevision(branchX, %d) = %q, want branchX", major, got)
		}
	}
}

func TestResolveRevision_PinsForModernToolchain(t *testing.T) {
	if got := resolveRevision("", 14); got != knownGoodTag {
		t.Errorf("resolveRevision(\"\", 14) = %q, want %q", got, knownGoodTag)
	}
	if got := resolveRevision("", 13); got != trackUpstream {
		t.Errorf("resolveRevision(\"\", 13) = %q, want %q", got, trackUpstream)
	}
}

func TestResolvedPlan_Pinned(t *testing.T) {
	if resolvePlan("", 13).Pinned() {
		t.Error("upstream-tracking plan reported as pinned")
	}
	if !resolvePlan("", 14).Pinned() {
		t.Error("tagged plan not reported as pinned")
	}
	if !resolvePlan("v1.0", 0).Pinned() {
		t.Error("explicit revision not reported as pinned")
	}
}

func TestResolvePlan_RevisionNeverEmpty(t *testing.T) {
	for _, major := range []int{0, 13, 14, 100} {
		for _, explicit := range []string{"", "8.3.100"} {
			if p := resolvePlan(explicit, major); p.Revision == "" {
				t.Errorf("resolvePlan(%q, %d) produced empty revision", explicit, major)
			}
		}
	}
}
