package version

import (
	"runtime/debug"
	"sync"
)

// ModulePath is the import path scopekit is looked up under in build info.
const ModulePath = "github.com/kbukum/scopekit"

const develVersion = "(devel)"

// Version overrides the detected version when set at build time.
var Version = ""

// Info describes the scopekit build in use.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	// Replaced is true when the module is replaced in go.mod, typically by a
	// local checkout.
	Replaced bool `json:"replaced"`
}

var get = sync.OnceValue(func() Info {
	bi, ok := debug.ReadBuildInfo()
	return resolve(bi, ok, Version)
})

// Get returns the version information, resolved once per process.
func Get() Info { return get() }

func resolve(bi *debug.BuildInfo, ok bool, override string) Info {
	info := Info{Version: "dev"}
	if ok && bi != nil {
		info.GoVersion = bi.GoVersion
		if mod := find(bi); mod != nil {
			if mod.Replace != nil {
				info.Replaced = true
				mod = mod.Replace
			}
			if mod.Version != "" && mod.Version != develVersion {
				info.Version = mod.Version
			}
		}
	}
	if override != "" {
		info.Version = override
	}
	return info
}

func find(bi *debug.BuildInfo) *debug.Module {
	if bi.Main.Path == ModulePath {
		return &bi.Main
	}
	for _, dep := range bi.Deps {
		if dep.Path == ModulePath {
			return dep
		}
	}
	return nil
}

// IsRelease reports whether the version names a tagged release.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !i.Replaced
}

func (i Info) String() string {
	if i.Replaced {
		return i.Version + " (replaced)"
	}
	return i.Version
}

// Fields returns the info as structured log fields.
func (i Info) Fields() map[string]interface{} {
	return map[string]interface{}{
		"scopekit_version": i.Version,
		"go_version":       i.GoVersion,
		"replaced":         i.Replaced,
	}
}
