package main

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/san-kum/attractor/internal/registry"
)

// Set at build time via -ldflags "-X main.Version=... -X main.GitCommit=...".
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(versionString())
		},
	}
}

func versionString() string {
	v := Version
	if sv, err := semver.NewVersion(Version); err == nil {
		v = fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch())
		if pre := sv.Prerelease(); pre != "" {
			v += "-" + pre
		}
	}
	return fmt.Sprintf("attractor %s (commit %s, %s %s/%s, library schema %d)",
		v, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH, registry.SchemaVersion)
}
