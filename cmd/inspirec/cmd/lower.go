package cmd

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inspirecore/inspire/internal/convert"
	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
)

var (
	includePaths      []string
	defines           []string
	interceptPatterns []string
	kidnapHeaderDirs  []string
	verbosity         int
)

// ParseFile is the hook a parser frontend installs to turn one source file
// into the AST the converter consumes. The core deliberately ships without
// a C parser — it is a separate collaborator — so a build that links none
// fails cleanly at run time rather than silently doing nothing.
var ParseFile func(path string, opts convert.DriverOptions) (srcast.Program, error)

var lowerCmd = &cobra.Command{
	Use:   "lower [files...]",
	Short: "Lower C translation units into Inspire IR",
	Long: `Lower one or more C translation units into the Inspire IR and print
the resulting program.

Each file is parsed, converted through the front-end translator (types,
statements, expressions, recursive functions and record types, the
globals aggregate), and pretty-printed. A failing translation unit stops
the run with a diagnostic; non-fatal errors collected along the way are
printed to stderr, and collected warnings follow them only with -v.

Examples:
  # Lower a single file
  inspirec lower kernel.c

  # Lower with include paths and preprocessor definitions
  inspirec lower -I ./include -D NDEBUG kernel.c

  # Represent everything under the cl namespace as opaque externals
  inspirec lower --intercept '^cl::' host.c`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLower,
}

func init() {
	rootCmd.AddCommand(lowerCmd)

	lowerCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "header search path (repeatable)")
	lowerCmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "preprocessor definition NAME or NAME=VALUE (repeatable)")
	lowerCmd.Flags().Var(&regexpList{&interceptPatterns}, "intercept", "regex of qualified names to represent as opaque externals (repeatable)")
	lowerCmd.Flags().StringArrayVar(&kidnapHeaderDirs, "kidnap-header", nil, "directory of substitute headers for named system ones (repeatable)")
	lowerCmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase diagnostic detail (repeatable)")
}

// regexpList validates each --intercept value as it is parsed, so a bad
// pattern is a flag error rather than a mid-conversion failure.
type regexpList struct{ patterns *[]string }

var _ pflag.Value = (*regexpList)(nil)

func (r *regexpList) String() string { return strings.Join(*r.patterns, ",") }
func (r *regexpList) Type() string   { return "regexp" }

func (r *regexpList) Set(v string) error {
	if _, err := regexp.Compile(v); err != nil {
		return fmt.Errorf("invalid intercept pattern %q: %w", v, err)
	}
	*r.patterns = append(*r.patterns, v)
	return nil
}

func runLower(_ *cobra.Command, args []string) error {
	if ParseFile == nil {
		exitWithError("no parser frontend is linked into this build")
	}

	opts := convert.DriverOptions{
		IncludePaths:      includePaths,
		Defines:           defines,
		InterceptPatterns: interceptPatterns,
		KidnapHeaderDirs:  kidnapHeaderDirs,
		Verbosity:         verbosity,
	}

	for _, path := range args {
		if verbosity > 0 {
			fmt.Fprintf(os.Stderr, "Lowering %s...\n", path)
		}
		prog, err := ParseFile(path, opts)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		m := ir.NewManager()
		collector := diag.NewCollector()
		cc, err := convert.NewConversionContext(m, collector, opts)
		if err != nil {
			return err
		}
		lowered, err := convert.LowerProgram(cc, prog)
		if err != nil {
			printDiagnostic(err)
			return err
		}

		printCollected(collector)
		fmt.Println(ir.Print(lowered))
	}
	return nil
}

// printCollected reports the non-fatal diagnostics of one translation
// unit, errors before warnings.
func printCollected(collector *diag.Collector) {
	for _, severity := range []diag.Severity{diag.SeverityError, diag.SeverityWarning} {
		for _, d := range collector.All() {
			if d.Severity != severity {
				continue
			}
			if severity == diag.SeverityWarning && verbosity == 0 {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Err.Format(false))
		}
	}
}

func printDiagnostic(err error) {
	if derr, ok := err.(*diag.Error); ok {
		fmt.Fprintln(os.Stderr, derr.Format(true))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
