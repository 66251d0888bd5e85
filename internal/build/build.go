// Package build holds build-time metadata stamped in via -ldflags.
package build

var (
	// ProjectName is used to prefix metric namespaces and identify the binary.
	ProjectName = "resolvd"

	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
