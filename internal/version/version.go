package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/ashleydavis/hoist-modules/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/ashleydavis/hoist-modules/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/ashleydavis/hoist-modules/internal/version.Date={{.Date}}
)
