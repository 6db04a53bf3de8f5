package version

import (
	"fmt"
	"runtime"
)

// BinaryName is the name of the executable
const BinaryName = "kube-current-token"

// Set via -ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	GoVersion = runtime.Version()
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

// GetVersionInfo returns a multi-line description of the build
func GetVersionInfo() string {
	return fmt.Sprintf(`%s
 Version:    %s
 Git commit: %s
 Built:      %s
 Go version: %s
 Platform:   %s`, BinaryName, Version, GitCommit, BuildDate, GoVersion, Platform)
}
