package keyward

// GitCommit is set at build time with
//
//	-ldflags "-X github.com/keyward/keyward.GitCommit=<hash>"
var GitCommit = ""

const release = "v0.1.0"

// Version returns the release and, when known, the commit it was built from.
func Version() string {
	if GitCommit == "" {
		return release
	}
	return release + "-" + GitCommit
}
