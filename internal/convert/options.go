package convert

// DriverOptions is the configuration surface the CLI driver collects and
// hands to the converter. The core reacts to these; it never
// reads flags or environment itself.
type DriverOptions struct {
	// IncludePaths are searched for headers by the (external) preprocessor;
	// the converter itself does not read them.
	IncludePaths []string
	// Defines are preprocessor macro definitions in "NAME" or "NAME=VALUE"
	// form, forwarded unmodified; the core does not evaluate them.
	Defines []string
	// InterceptPatterns are regexes matched against a declaration's
	// qualified name; a match causes the declaration to be lowered as an
	// opaque external rather than having its definition converted (see
	// internal/convert/intercept.go).
	InterceptPatterns []string
	// KidnapHeaderDirs substitute local headers for named system ones; the
	// core records them for the driver's own file-resolution step and does
	// not otherwise act on them.
	KidnapHeaderDirs []string
	// Verbosity selects how much the driver reports: at 0 only collected
	// errors are printed; at 1 or more, collected warnings and a progress
	// line per file are printed as well. The converter does not read it.
	Verbosity int
}
