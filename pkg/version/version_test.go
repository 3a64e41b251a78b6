package version

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/matzehuels/schemahub/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantErr bool
	}{
		{"1.0.0", "1.0.0", false},
		{"v1.0.0", "1.0.0", false},
		{"V2.3.4", "2.3.4", false},
		{"v1.0.0-beta.2", "1.0.0-beta.2", false},
		{"1.0.0+build.7", "1.0.0+build.7", false},
		{"v1.0.0-rc.1+exp.sha.5114f85", "1.0.0-rc.1+exp.sha.5114f85", false},

		{"", "", true},
		{"v", "", true},
		{"1.0", "", true},
		{"v1", "", true},
		{"1.0.0.0", "", true},
		{"01.0.0", "", true},
		{"1.0.0-01", "", true},
		{"vv1.0.0", "", true},
		{"release-1.0.0", "", true},
		{"latest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			r, err := Parse(tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidVersion) {
					t.Errorf("Parse(%q) code = %s, want INVALID_VERSION", tt.label, errors.GetCode(err))
				}
				return
			}
			if r.Version != tt.want {
				t.Errorf("Parse(%q).Version = %q, want %q", tt.label, r.Version, tt.want)
			}
			if r.Label != tt.label {
				t.Errorf("Parse(%q).Label = %q, want literal label", tt.label, r.Label)
			}
		})
	}
}

// precedence is the example chain from the SemVer 2.0.0 specification,
// extended with major/minor/patch steps.
var precedence = []string{
	"0.9.9",
	"1.0.0-alpha",
	"1.0.0-alpha.1",
	"1.0.0-alpha.beta",
	"1.0.0-beta",
	"1.0.0-beta.2",
	"1.0.0-beta.11",
	"1.0.0-rc.1",
	"1.0.0",
	"1.0.1",
	"1.1.0",
	"2.0.0-beta",
	"2.0.0",
	"10.0.0",
}

func mustParseAll(t *testing.T, labels []string) []Release {
	t.Helper()
	out := make([]Release, 0, len(labels))
	for _, l := range labels {
		r, err := Parse(l)
		if err != nil {
			t.Fatalf("Parse(%q): %v", l, err)
		}
		out = append(out, r)
	}
	return out
}

func versions(rs []Release) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Version
	}
	return out
}

func TestOrderMatchesPrecedenceTable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(precedence)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := versions(Order(mustParseAll(t, shuffled)))
		if !slices.Equal(got, precedence) {
			t.Fatalf("Order(%v) = %v, want %v", shuffled, got, precedence)
		}
	}
}

func TestCompareIsConsistent(t *testing.T) {
	rs := mustParseAll(t, precedence)
	for i := range rs {
		for j := range rs {
			got := Compare(rs[i], rs[j])
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", rs[i], rs[j], got, want)
			}
		}
	}
}

func TestBuildMetadataIgnored(t *testing.T) {
	a := mustParseAll(t, []string{"1.0.0+b", "1.0.0+a"})
	if Compare(a[0], a[1]) != 0 {
		t.Error("build metadata should not affect precedence")
	}
	// Ties are broken by label, so the order is still total.
	got := Order(a)
	if got[0].Label != "1.0.0+a" {
		t.Errorf("Order tie-break = %v, want label order", got)
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	in := mustParseAll(t, []string{"2.0.0", "1.0.0"})
	_ = Order(in)
	if in[0].Version != "2.0.0" {
		t.Error("Order should not modify its input")
	}
}

func TestLatest(t *testing.T) {
	rs := mustParseAll(t, []string{"v1.1.0", "v1.0.0", "v2.0.0-beta"})
	latest, err := Latest(rs)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	ordered := Order(rs)
	if latest != ordered[len(ordered)-1] {
		t.Errorf("Latest = %v, want last of Order = %v", latest, ordered[len(ordered)-1])
	}
	if latest.Version != "2.0.0-beta" {
		t.Errorf("Latest = %s, want 2.0.0-beta", latest)
	}

	if _, err := Latest(nil); !errors.Is(err, errors.ErrCodeNoTagsFound) {
		t.Errorf("Latest(nil) error = %v, want NO_TAGS_FOUND", err)
	}
}

func TestPrereleaseOfNextMajorIsLatest(t *testing.T) {
	// 2.0.0-beta has lower precedence than 2.0.0 but higher than 1.0.0.
	if got := Max([]string{"1.0.0", "2.0.0-beta"}); got != "2.0.0-beta" {
		t.Errorf("Max = %q, want 2.0.0-beta", got)
	}
	if got := Max([]string{"1.0.0", "1.0.0-beta"}); got != "1.0.0" {
		t.Errorf("Max = %q, want 1.0.0", got)
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{"1.0.0"}, "1.0.0"},
		{"insertion order irrelevant", []string{"1.1.0", "1.0.0"}, "1.1.0"},
		{"numeric not lexical", []string{"1.9.0", "1.10.0"}, "1.10.0"},
		{"invalid skipped", []string{"garbage", "0.1.0"}, "0.1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Max(tt.in); got != tt.want {
				t.Errorf("Max(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTagName(t *testing.T) {
	tests := []struct {
		name  string
		r     Release
		known []string
		want  string
	}{
		{"literal label present", Release{Label: "v1.0.0", Version: "1.0.0"}, []string{"v1.0.0"}, "v1.0.0"},
		{"bare label present", Release{Label: "1.0.0", Version: "1.0.0"}, []string{"1.0.0"}, "1.0.0"},
		{"version present without label", Release{Version: "1.0.0"}, []string{"1.0.0"}, "1.0.0"},
		{"prefix added when absent", Release{Version: "1.0.0"}, []string{"v1.0.0"}, "v1.0.0"},
		{"prefix added when nothing known", Release{Version: "2.0.0"}, nil, "v2.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagName(tt.r, tt.known); got != tt.want {
				t.Errorf("TagName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrerelease(t *testing.T) {
	r := mustParseAll(t, []string{"v1.0.0-beta.2+sha"})[0]
	if got := r.Prerelease(); got != "beta.2" {
		t.Errorf("Prerelease() = %q, want beta.2", got)
	}
}
