// internal/version/version.go

// Package version reports build information for the dotmail binary.
package version

import (
	"net/http"
	"runtime"

	"github.com/dalemusser/dotmail/internal/httpapi/respond"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/dalemusser/dotmail/internal/version.Version=1.0.0 \
//	                   -X github.com/dalemusser/dotmail/internal/version.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the JSON body of /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns the current build info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Handler serves Get as JSON.
func Handler() http.Handler {
	info := Get()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, info)
	})
}

// String is a one-line summary, e.g. "1.2.3 (abc123, built 2026-01-15T10:30:00Z)".
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}
