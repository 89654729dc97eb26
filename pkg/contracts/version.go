package contracts

import (
	"fmt"
	"runtime"
)

const (
	Version = "1.2.0"

	// ResultFormatVersion changes whenever exported column labels change, so
	// downstream spreadsheets can detect a layout they do not know.
	ResultFormatVersion = "v2"

	APIVersion = "v1"
)

// Set with -ldflags "-X uncertcli/pkg/contracts.GitCommit=..." at build time.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is served by /api/version and printed by uncertainty -version.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	ResultFormat string `json:"result_format"`
	APIVersion   string `json:"api_version"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		ResultFormat: ResultFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetFullVersionString is the one-line banner printed by the CLI.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("uncertainty %s (result format %s, commit %s, %s %s/%s)",
		info.Version, info.ResultFormat, info.GitCommit, info.GoVersion, info.OS, info.Architecture)
}
