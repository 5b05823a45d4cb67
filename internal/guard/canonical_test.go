package guard

import "testing"

func TestCleanPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"foo.h", "foo.h"},
		{"include/foo/bar.h", "include/foo/bar.h"},
		{"include/./foo/bar.h", "include/foo/bar.h"},
		{"include/foo/../bar.h", "include/bar.h"},
		{"include//foo///bar.h", "include/foo/bar.h"},
		{"./foo.h", "foo.h"},
		{"../foo.h", "foo.h"},
		{"../../foo.h", "foo.h"},
		{"a/b/../../c.h", "c.h"},
		{"/abs/path/../file.h", "/abs/file.h"},
		{"/../file.h", "/file.h"},
		{"a/./b/./c.h", "a/b/c.h"},
	}
	for _, tc := range cases {
		got := CleanPath(tc.in)
		if got != tc.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanPathIdempotent(t *testing.T) {
	inputs := []string{
		"include/foo/../bar.h",
		"./a/b/./c.h",
		"../weird/../path.h",
		"/x/y/../z.h",
	}
	for _, in := range inputs {
		once := CleanPath(in)
		twice := CleanPath(once)
		if once != twice {
			t.Errorf("CleanPath not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
