// authenticationhandler/validation.go

package authenticationhandler

import (
	"regexp"
)

var appIDRegex = regexp.MustCompile(`^cli_[0-9a-zA-Z]+$`)

// IsValidAppID checks that appID has the open platform shape, "cli_" followed by alphanumerics.
// Returns true if valid, along with an empty error message; otherwise, returns false with an error message.
func IsValidAppID(appID string) (bool, string) {
	if appID == "" {
		return false, "App ID is required."
	}
	if appIDRegex.MatchString(appID) {
		return true, ""
	}
	return false, "App ID must start with \"cli_\" followed by letters and digits."
}

// IsValidAppSecret checks that the app secret is present and free of whitespace.
// Returns true if valid, along with an empty error message; otherwise, returns false with an error message.
func IsValidAppSecret(appSecret string) (bool, string) {
	if appSecret == "" {
		return false, "App secret is required."
	}
	if matched, _ := regexp.MatchString(`\s`, appSecret); matched {
		return false, "App secret must not contain whitespace."
	}
	return true, ""
}

// IsValidAppType checks that appType is one of the supported app types.
func IsValidAppType(appType AppType) (bool, string) {
	switch appType {
	case AppTypeSelfBuild, AppTypeMarketplace:
		return true, ""
	default:
		return false, "App type must be SelfBuild or Marketplace."
	}
}
