// version.go
package version

import (
	"fmt"
	"runtime"
)

// AppName holds the name of the SDK
var AppName = "go-api-sdk-lark-core"

// Version holds the current version of the SDK
var Version = "0.1.0"

// GetAppName returns the name of the SDK
func GetAppName() string {
	return AppName
}

// GetVersion returns the current version of the SDK
func GetVersion() string {
	return Version
}

// GetUserAgentHeader returns the User-Agent sent on every request, e.g.
// "go-api-sdk-lark-core/0.1.0 (go1.22.4; linux/amd64)".
func GetUserAgentHeader() string {
	return fmt.Sprintf("%s/%s (%s; %s/%s)", AppName, Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
