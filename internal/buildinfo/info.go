// Package buildinfo carries version metadata stamped at link time, e.g.
//
//	go build -ldflags "-X github.com/cleared-dev/finboard/internal/buildinfo.Version=v0.3.0"
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
