package autoconf

const (
	// Recommended priorities for common property source chains. Higher numbers win.
	SourcePriorityDefaults = 100
	SourcePriorityFile     = 200
	SourcePriorityEnv      = 300
	SourcePriorityInline   = 400
)

// DefaultsFileEnvInline assembles the canonical four-source chain
// (defaults → file → env → inline) and returns the merged sources.
func DefaultsFileEnvInline(defaults, file, env, inline Snapshot) (*PropertySources, error) {
	return NewPropertySources(
		NewPropertySource(NewSource("inline", SourcePriorityInline, WithSourceLabel("Inline Properties")), inline),
		NewPropertySource(NewSource("env", SourcePriorityEnv, WithSourceLabel("Environment")), env),
		NewPropertySource(NewSource("file", SourcePriorityFile, WithSourceLabel("Properties File")), file),
		NewPropertySource(NewSource("defaults", SourcePriorityDefaults, WithSourceLabel("Defaults")), defaults),
	)
}
