package selfupdate

import (
	"testing"

	"github.com/blang/semver"
)

func TestSemverRegexExtractsVersionFromTag(t *testing.T) {
	cases := map[string]string{
		"v1.2.3":              "1.2.3",
		"release-v2.0.0-beta": "2.0.0-beta",
		"1.4.9":                "1.4.9",
	}
	for tag, want := range cases {
		match := semverRe.FindString(tag)
		if match == "" {
			t.Fatalf("no semver match found in tag %q", tag)
		}
		v, err := semver.Parse(match)
		if err != nil {
			v, err = semver.Parse(stripV(match))
			if err != nil {
				t.Fatalf("could not parse %q as semver: %v", match, err)
			}
		}
		if v.String() != want {
			t.Errorf("tag %q parsed to %q, want %q", tag, v.String(), want)
		}
	}
}

func stripV(s string) string {
	if len(s) > 0 && s[0] == 'v' {
		return s[1:]
	}
	return s
}
