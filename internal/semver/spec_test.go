package semver

import "testing"

func TestParseSpec(t *testing.T) {
	cases := []struct {
		raw  string
		kind SpecKind
	}{
		{"1.2.3", SpecExact},
		{"1.2.3+", SpecSameMajor},
		{"LATEST", SpecUnconstrained},
		{"latest", SpecUnconstrained},
		{"", SpecUnconstrained},
		{"  1.2.3  ", SpecExact},
		{"not-a-version", SpecUnconstrained},
		{"~> 2.3.0", SpecSameMajor},
	}
	for _, tc := range cases {
		got := ParseSpec(tc.raw)
		if got.Kind != tc.kind {
			t.Fatalf("ParseSpec(%q): expected kind %v, got %v", tc.raw, tc.kind, got.Kind)
		}
	}
}

func TestSpecPodConstraint(t *testing.T) {
	if got := ParseSpec("2.3.0").PodConstraint(); got != "2.3.0" {
		t.Fatalf("exact spec: got %q", got)
	}
	if got := ParseSpec("2.3.0+").PodConstraint(); got != "~> 2.3.0" {
		t.Fatalf("same-major spec: got %q", got)
	}
	if got := ParseSpec("LATEST").PodConstraint(); got != "" {
		t.Fatalf("unconstrained spec: got %q", got)
	}
	// Pod syntax survives a parse/render round trip, so re-absorbed Podfile
	// entries render byte-identically.
	if got := ParseSpec("~> 2.3.0").PodConstraint(); got != "~> 2.3.0" {
		t.Fatalf("pod optimistic spec: got %q", got)
	}
}

func TestSpecGradleConstraint(t *testing.T) {
	if got := ParseSpec("11.0.2").GradleConstraint(); got != "11.0.2" {
		t.Fatalf("exact spec: got %q", got)
	}
	if got := ParseSpec("11.0.2+").GradleConstraint(); got != "11.0.2+" {
		t.Fatalf("same-major spec: got %q", got)
	}
	if got := ParseSpec("").GradleConstraint(); got != "+" {
		t.Fatalf("unconstrained spec: got %q", got)
	}
}

func TestSpecMavenConstraint(t *testing.T) {
	if got := ParseSpec("11.0.2").MavenConstraint(); got != "11.0.2" {
		t.Fatalf("exact spec: got %q", got)
	}
	// Maven rejects Gradle's trailing '+'; same-major becomes a bounded range.
	if got := ParseSpec("16.0.0+").MavenConstraint(); got != "[16.0.0,17.0.0)" {
		t.Fatalf("same-major spec: got %q", got)
	}
	if got := ParseSpec("").MavenConstraint(); got != "LATEST" {
		t.Fatalf("unconstrained spec: got %q", got)
	}
}

func TestSpecAllows(t *testing.T) {
	sameMajor := ParseSpec("1.2.0+")
	if !sameMajor.Allows(MustParseVersion("1.9.0")) {
		t.Fatalf("expected 1.9.0 inside 1.2.0+")
	}
	if sameMajor.Allows(MustParseVersion("2.0.0")) {
		t.Fatalf("expected 2.0.0 outside 1.2.0+")
	}

	exact := ParseSpec("1.2.0")
	if !exact.Allows(MustParseVersion("1.2.0")) {
		t.Fatalf("expected exact spec to allow its own version")
	}
	if exact.Allows(MustParseVersion("1.2.1")) {
		t.Fatalf("expected exact spec to reject a different version")
	}

	// Unconstrained specs, and entries with no version at all, allow anything.
	if !ParseSpec("LATEST").Allows(MustParseVersion("9.9.9")) {
		t.Fatalf("expected unconstrained spec to allow anything")
	}
	if !exact.Allows(Version{}) {
		t.Fatalf("expected zero version to pass any spec")
	}
}

func TestSpecRetainsRawText(t *testing.T) {
	s := ParseSpec("1.2.3+")
	if s.Raw != "1.2.3+" {
		t.Fatalf("expected raw text to be retained, got %q", s.Raw)
	}
}
