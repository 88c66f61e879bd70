package migrate

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionNumber is a major.minor layout version.
type VersionNumber struct {
	Major int
	Minor int
}

var (
	// Version02 is the layout with the string index and the root map inside model+root.
	Version02 = VersionNumber{Major: 0, Minor: 2}
	// Version10 is the current layout.
	Version10 = VersionNumber{Major: 1, Minor: 0}
	// LastVersion is the version every migration ends at.
	LastVersion = Version10
)

// ParseVersion parses "major.minor". Anything else is reported as false.
func ParseVersion(s string) (VersionNumber, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return VersionNumber{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return VersionNumber{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return VersionNumber{}, false
	}
	return VersionNumber{Major: major, Minor: minor}, true
}

func (v VersionNumber) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
