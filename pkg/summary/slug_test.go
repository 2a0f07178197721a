package summary

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plan 014: Summary Schema!", "plan-014-summary-schema"},
		{"already-slugged", "already-slugged"},
		{"  Leading & Trailing  ", "leading-trailing"},
		{"UPPER case", "upper-case"},
		{"a---b", "a-b"},
		{"émigré notes", "migr-notes"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	for _, in := range []string{"Plan 014: Summary Schema!", "x", "a b c"} {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Fatalf("Slugify(Slugify(%q)) = %q, want %q", in, twice, once)
		}
	}
}
