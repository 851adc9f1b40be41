// internal/jvm/version.go
package jvm

import (
	"fmt"

	"klasse/internal/errors"
)

// MaxMajorVersion is the newest class-file major version this module
// understands (JDK 24).
const MaxMajorVersion uint16 = 68

// MinMajorVersion is the oldest supported major version (JDK 1.1).
const MinMajorVersion uint16 = 45

// previewMinor marks a class file compiled with --enable-preview.
const previewMinor uint16 = 0xFFFF

// Version is a validated class-file version.
type Version struct {
	Major uint16
	Minor uint16
}

// ParseVersion validates a (major, minor) pair. Major 45 accepts any minor;
// 46 through 55 require minor 0; 56 and newer also accept the preview
// marker 0xFFFF.
func ParseVersion(major, minor uint16) (Version, error) {
	switch {
	case major < MinMajorVersion || major > MaxMajorVersion:
		return Version{}, errors.Newf(errors.UnsupportedVersion, "unsupported major version %d", major)
	case major == MinMajorVersion:
		return Version{Major: major, Minor: minor}, nil
	case minor == 0:
		return Version{Major: major, Minor: minor}, nil
	case minor == previewMinor && major >= 56:
		return Version{Major: major, Minor: minor}, nil
	default:
		return Version{}, errors.Newf(errors.UnsupportedVersion, "invalid version %d.%d", major, minor)
	}
}

// PreviewEnabled reports whether the class file was compiled with
// --enable-preview.
func (v Version) PreviewEnabled() bool {
	return v.Major >= 56 && v.Minor == previewMinor
}

func (v Version) String() string {
	if v.PreviewEnabled() {
		return fmt.Sprintf("%d (preview)", v.Major)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
