// Package build holds version information set at link time with
// -ldflags "-X github.com/pdfwala/pdfops/internal/build.ShortVersion=...".
package build

var (
	ShortVersion = "dev"
	GitRef       = "unknown"
	BuildDate    = "unknown"
	LongVersion  = ShortVersion + " (" + GitRef + ", " + BuildDate + ")"
)
