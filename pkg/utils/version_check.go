package utils

import (
	"strings"

	"golang.org/x/mod/semver"
)

// CheckDisplayVersion reports whether a connecting display/judge client is
// recent enough for the live protocol. minVersion empty disables the check.
func CheckDisplayVersion(toCheck, minVersion string) bool {
	if minVersion == "" {
		return true
	}
	if !strings.HasPrefix(toCheck, "v") {
		toCheck = "v" + toCheck
	}
	if !strings.HasPrefix(minVersion, "v") {
		minVersion = "v" + minVersion
	}
	return semver.Compare(toCheck, minVersion) >= 0
}
