package lifecycle

import (
	"regexp"
	"strings"
	"unicode"
)

// Description identifies the test a signal refers to. It is a value: a new
// one is built for every signal and never mutated.
type Description struct {
	label              string
	filesystemSafeName string
}

// NewDescription builds a Description from a display label and the unique
// path of the test (for example "Suite/Nested/first_test/try-1").
func NewDescription(label, path string) Description {
	if path == "" {
		path = label
	}
	return Description{
		label:              label,
		filesystemSafeName: FilesystemFriendlyName(path),
	}
}

// Label returns the display label of the test.
func (d Description) Label() string { return d.label }

// FilesystemSafeName returns a name usable as a file or directory name,
// for example when a resource records logs or video per test.
func (d Description) FilesystemSafeName() string { return d.filesystemSafeName }

func (d Description) String() string { return d.label }

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FilesystemFriendlyName turns an arbitrary test path into a name that is safe
// on every common filesystem. Control characters are dropped and every run of
// other unsafe characters collapses to a single underscore.
func FilesystemFriendlyName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_.")
	if name == "" {
		return "UNKNOWN"
	}
	return name
}
