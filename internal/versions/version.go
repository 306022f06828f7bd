// Package versions reports the build information of the accreg-sync binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const unknown = "unknown"

// Set with -ldflags "-X github.com/stacklok/accreg-sync/internal/versions.Version=..."
var (
	Version   = "dev"
	Commit    = unknown
	BuildDate = unknown
)

// Info is the build information returned by the version command and endpoint
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// String renders the info on one line
func (i Info) String() string {
	return fmt.Sprintf("accreg-sync %s (commit %s, built %s, %s %s)",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}

// Get returns the build information of the running binary
func Get() Info {
	return resolve(Version, Commit, BuildDate, readVCS)
}

// readVCS returns the vcs revision and time stamped by the go tool, if any
func readVCS() (revision, stamp string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			stamp = setting.Value
		}
	}
	return revision, stamp
}

func resolve(version, commit, buildDate string, vcs func() (string, string)) Info {
	if version == "dev" {
		revision, stamp := vcs()
		if commit == unknown && revision != "" {
			commit = revision
		}
		if buildDate == unknown && stamp != "" {
			buildDate = stamp
		}
		version = fmt.Sprintf("dev-%.8s", commit)
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	return Info{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
