package constraints

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nox-hq/certguard/core/algorithm"
)

func TestParseAlgorithms_QuotesAndTrim(t *testing.T) {
	s := ParseAlgorithms("  \"MD5, SHA1 \"")
	want := []string{"MD5", "SHA1"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestParseAlgorithms_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", `""`, " , ,"} {
		if s := ParseAlgorithms(in); s.Len() != 0 {
			t.Errorf("ParseAlgorithms(%q) = %v, want empty", in, s.Names())
		}
	}
}

func TestAlgorithmSet_CaseInsensitive(t *testing.T) {
	s := ParseAlgorithms("md5, Sha1")
	for _, name := range []string{"MD5", "md5", "SHA1", "sha1", "ShA1"} {
		if !s.Contains(name) {
			t.Errorf("Contains(%q) = false, want true", name)
		}
	}
	if s.Contains("SHA256") {
		t.Error("Contains(SHA256) = true, want false")
	}
}

func TestAlgorithmSet_NilSafe(t *testing.T) {
	var s *AlgorithmSet
	if s.Contains("MD5") {
		t.Error("nil set should contain nothing")
	}
	if s.Len() != 0 {
		t.Error("nil set should be empty")
	}
}

func TestPermits_EmptySetPermitsEverything(t *testing.T) {
	empty := ParseAlgorithms("")
	for _, name := range []string{"MD5", "SHA1withRSA", "AES/GCM/NoPadding", "x"} {
		ok, err := Permits(empty, name, algorithm.Decomposer{})
		if err != nil {
			t.Fatalf("Permits(%q) error = %v", name, err)
		}
		if !ok {
			t.Errorf("Permits(%q) = false with empty set", name)
		}
	}
}

func TestPermits_EmptyNameIsInvalid(t *testing.T) {
	for _, set := range []*AlgorithmSet{ParseAlgorithms(""), ParseAlgorithms("MD5")} {
		for _, name := range []string{"", "  "} {
			_, err := Permits(set, name, algorithm.Decomposer{})
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Permits(%q) error = %v, want ErrInvalidArgument", name, err)
			}
		}
	}
}

func TestPermits_Decomposition(t *testing.T) {
	disabled := ParseAlgorithms("SHA1")

	tests := []struct {
		name string
		want bool
	}{
		{"SHA1withRSA", false},
		{"sha1", false},
		{"SHA-1withECDSA", false}, // closure adds SHA1
		{"SHA256withRSA", true},
		{"PBEWithSHA1AndDESede", false},
	}
	for _, tt := range tests {
		got, err := Permits(disabled, tt.name, algorithm.Decomposer{})
		if err != nil {
			t.Fatalf("Permits(%q) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("Permits(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPermits_WholeNameMatch(t *testing.T) {
	disabled := ParseAlgorithms("MD5withRSA")
	ok, err := Permits(disabled, "md5WITHrsa", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected whole-name match to reject")
	}
	ok, _ = Permits(disabled, "MD5", nil)
	if !ok {
		t.Error("MD5 alone should be permitted when only MD5withRSA is disabled")
	}
}

type countingDecomposer struct {
	calls int
}

func (d *countingDecomposer) Decompose(name string) algorithm.Set {
	d.calls++
	return algorithm.Decompose(name)
}

func TestPermits_UsesGivenDecomposer(t *testing.T) {
	d := &countingDecomposer{}
	if _, err := Permits(ParseAlgorithms("MD5"), "SHA256withRSA", d); err != nil {
		t.Fatal(err)
	}
	if d.calls != 1 {
		t.Errorf("decomposer calls = %d, want 1", d.calls)
	}
}
