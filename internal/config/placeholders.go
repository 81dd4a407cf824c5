package config

// Placeholders available to each command template. Secrets named in
// required_secrets are additionally available to publish_command.
var (
	BuildPlaceholders   = []string{"PACKAGE", "PACKAGE_DIR", "MANIFEST", "VERSION"}
	PublishPlaceholders = []string{"PACKAGE", "PACKAGE_DIR", "MANIFEST", "VERSION", "ARTIFACT"}
	TestPlaceholders    = []string{"PACKAGE", "PACKAGE_DIR", "MANIFEST", "TEST_PROJECT"}
	// ArtifactPlaceholders may appear in artifact_glob.
	ArtifactPlaceholders = []string{"PACKAGE", "VERSION"}
)
