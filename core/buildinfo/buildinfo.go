package buildinfo

// Set with -ldflags at build time, for example:
//
//	-X 'github.com/EgoisTa-Git/fish-shop/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/EgoisTa-Git/fish-shop/core/buildinfo.Commit=1a2b3c4'
//	-X 'github.com/EgoisTa-Git/fish-shop/core/buildinfo.Date=2026-10-01T09:00:00Z'
var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// UserAgent identifies the bot in outbound HTTP calls.
func UserAgent() string {
	return "fish-shop/" + Version
}
