package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "inspirec",
	Short: "C-to-Inspire-IR front-end driver",
	Long: `inspirec lowers C programs (with OpenMP/OpenCL extensions) into the
Inspire intermediate representation: a hash-consed, typed, purely
functional expression graph suitable for polyhedral analysis and code
generation back into C.

The driver parses each translation unit, converts it through the
front-end translator, and prints the resulting IR program. The driver
does not run the back-end type manager; no command emits target type
fragments.`,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
