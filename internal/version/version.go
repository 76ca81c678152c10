// Package version holds the application version, set at build time with
// -ldflags "-X github.com/bolsamaster/bolsamaster-backend/internal/version.Version=1.2.3".
package version

// Version is the running application version.
var Version = "dev"
