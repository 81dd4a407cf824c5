package config

// GetDefaults returns the default configuration values.
// The defaults describe a tree of Fable bindings published to NuGet:
// glues/<Package>/src/<Package>.fsproj with a CHANGELOG.md next to src/.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"packages_dir":      "glues",
		"packages":          []string{},
		"manifest_glob":     "src/*.fsproj",
		"changelog_path":    "CHANGELOG.md",
		"artifact_glob":     "src/bin/Release/{{PACKAGE}}.{{VERSION}}.nupkg",
		"test_project_glob": "tests/*.fsproj",
		// in_progress_marker must match the first "## " heading exactly (case-sensitive).
		"in_progress_marker":    "Unreleased",
		"build_command":         "dotnet pack -c Release {{MANIFEST}}",
		"publish_command":       "dotnet nuget push -s nuget.org -k {{NUGET_KEY}} {{ARTIFACT}}",
		"test_command":          "dotnet test {{TEST_PROJECT}}",
		"fallback_test_command": "dotnet build {{MANIFEST}}",
		"required_secrets":      []string{"NUGET_KEY"},
		"command_timeout":       "0s",
		// Files generated by Fable and the dotnet/Fable cache folders.
		"clean_files": []string{
			"{src,tests,glues}/**/*.fs.js",
			"{src,tests,glues}/**/*.fs.js.map",
		},
		"clean_dirs": []string{
			"{src,tests,glues}/**/.fable",
			"{src,tests,glues}/**/obj",
			"{src,tests,glues}/**/bin",
		},
		"watch_paths":         []string{"src", "tests", "glues"},
		"watch_ignore":        []string{},
		"state_dir":           ".releasekit",
		"max_history_entries": 200,
	}
}
