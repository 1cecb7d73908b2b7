package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version number",
	Annotations: map[string]string{skipServices: "true"},
	Args:        cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			cmd.Println(version)
			return
		}
		cmd.Printf("sage version %s (%s, %s %s/%s)\n",
			version, buildRevision(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// buildRevision returns the short VCS commit stamped by the go tool, with a
// "+dirty" suffix for modified trees.
func buildRevision() string {
	info, ok := readBuildInfo()
	if !ok {
		return "unknown commit"
	}
	var rev, dirty string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "+dirty"
			}
		}
	}
	if rev == "" {
		return "unknown commit"
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return "commit " + rev + dirty
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}
