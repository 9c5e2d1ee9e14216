package keyward

import "testing"

func TestVersion(t *testing.T) {
	defer func(prev string) { GitCommit = prev }(GitCommit)

	GitCommit = ""
	if got := Version(); got != release {
		t.Fatalf("want %q, got %q", release, got)
	}
	GitCommit = "abc123"
	if got, want := Version(), release+"-abc123"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}
