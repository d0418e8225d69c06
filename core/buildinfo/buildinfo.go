// Package buildinfo carries version metadata injected at link time:
//
//	go build -ldflags "-X 'github.com/m3rciful/quizbot/core/buildinfo.Version=v1.2.3' \
//	  -X 'github.com/m3rciful/quizbot/core/buildinfo.Commit=abcdef0' \
//	  -X 'github.com/m3rciful/quizbot/core/buildinfo.Date=2025-08-30T12:00:00Z'" ./cmd/quizbot
package buildinfo

var (
	// Version is the release tag of the build.
	Version = "dev"
	// Commit is the source commit of the build.
	Commit = "local"
	// Date is the build time in RFC3339.
	Date = ""
)
