// version_test.go
package version

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGetUserAgentHeader verifies that the GetUserAgentHeader function returns the expected user agent string
func TestGetUserAgentHeader(t *testing.T) {
	userAgent := GetUserAgentHeader()

	assert.True(t, strings.HasPrefix(userAgent, fmt.Sprintf("%s/%s ", GetAppName(), GetVersion())), userAgent)
	assert.Contains(t, userAgent, runtime.GOOS)
}
