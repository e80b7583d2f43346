package syncrepos_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/chessbyte/dotfiles/internal/syncrepos"
)

func writeConfigurationFile(testInstance *testing.T, directory string, fileName string, settings map[string]any) {
	testInstance.Helper()
	encodedSettings, marshalError := yaml.Marshal(settings)
	require.NoError(testInstance, marshalError)
	require.NoError(testInstance, os.WriteFile(filepath.Join(directory, fileName), encodedSettings, 0o644))
}

func TestDefaultParameters(testInstance *testing.T) {
	parameters := syncrepos.DefaultParameters()
	require.Equal(testInstance, "origin", parameters.SourceRemote)
	require.Empty(testInstance, parameters.TargetRemote)
	require.Equal(testInstance, "main", parameters.MainBranch)
	require.False(testInstance, parameters.Verbose)
}

func TestResolveParametersWithoutConfigurationFilesUsesDefaults(testInstance *testing.T) {
	parameters, resolveError := syncrepos.ResolveParameters(testInstance.TempDir(), testInstance.TempDir(), syncrepos.FlagOverrides{})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, syncrepos.DefaultParameters(), parameters)
}

func TestResolveParametersMergesTiersPerKey(testInstance *testing.T) {
	homeDirectory := testInstance.TempDir()
	workingDirectory := testInstance.TempDir()
	writeConfigurationFile(testInstance, homeDirectory, ".repo-sync.yaml", map[string]any{"source_remote": "origin", "target_remote": "backup"})
	writeConfigurationFile(testInstance, workingDirectory, ".repo-sync.yaml", map[string]any{"main_branch": "develop"})

	parameters, resolveError := syncrepos.ResolveParameters(homeDirectory, workingDirectory, syncrepos.FlagOverrides{})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "origin", parameters.SourceRemote)
	require.Equal(testInstance, "backup", parameters.TargetRemote)
	require.Equal(testInstance, "develop", parameters.MainBranch)
}

func TestResolveParametersAcceptsHyphenatedKeys(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeConfigurationFile(testInstance, workingDirectory, "repo-sync.yaml", map[string]any{"source-remote": "upstream", "main-branch": "trunk"})

	parameters, resolveError := syncrepos.ResolveParameters("", workingDirectory, syncrepos.FlagOverrides{})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "upstream", parameters.SourceRemote)
	require.Equal(testInstance, "trunk", parameters.MainBranch)
}

func TestResolveParametersDirectoryFileOverridesGlobalFile(testInstance *testing.T) {
	homeDirectory := testInstance.TempDir()
	workingDirectory := testInstance.TempDir()
	writeConfigurationFile(testInstance, homeDirectory, ".repo-sync.yaml", map[string]any{"source_remote": "origin", "verbose": false})
	writeConfigurationFile(testInstance, workingDirectory, ".repo-sync.yml", map[string]any{"source_remote": "fork", "verbose": true})

	parameters, resolveError := syncrepos.ResolveParameters(homeDirectory, workingDirectory, syncrepos.FlagOverrides{})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "fork", parameters.SourceRemote)
	require.True(testInstance, parameters.Verbose)
}

func TestResolveParametersFlagOverridesBeatConfigurationFiles(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeConfigurationFile(testInstance, workingDirectory, ".repo-sync.yaml", map[string]any{"source_remote": "fork", "main_branch": "develop"})

	flagSourceRemote := "upstream"
	flagVerbose := true
	parameters, resolveError := syncrepos.ResolveParameters("", workingDirectory, syncrepos.FlagOverrides{
		SourceRemote: &flagSourceRemote,
		Verbose:      &flagVerbose,
	})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "upstream", parameters.SourceRemote)
	require.Equal(testInstance, "develop", parameters.MainBranch)
	require.True(testInstance, parameters.Verbose)
}

func TestResolveParametersHonorsFileNamePriority(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeConfigurationFile(testInstance, workingDirectory, ".repo-sync.yaml", map[string]any{"main_branch": "first"})
	writeConfigurationFile(testInstance, workingDirectory, "repo-sync.yaml", map[string]any{"main_branch": "last"})

	parameters, resolveError := syncrepos.ResolveParameters("", workingDirectory, syncrepos.FlagOverrides{})
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "first", parameters.MainBranch)
}

func TestResolveParametersExplicitZeroValuesStillOverride(testInstance *testing.T) {
	homeDirectory := testInstance.TempDir()
	workingDirectory := testInstance.TempDir()
	writeConfigurationFile(testInstance, homeDirectory, ".repo-sync.yaml", map[string]any{"target_remote": "backup"})
	writeConfigurationFile(testInstance, workingDirectory, ".repo-sync.yaml", map[string]any{"target_remote": ""})

	parameters, resolveError := syncrepos.ResolveParameters(homeDirectory, workingDirectory, syncrepos.FlagOverrides{})
	require.NoError(testInstance, resolveError)
	require.Empty(testInstance, parameters.TargetRemote)
}

func TestResolveParametersReportsUnreadableConfiguration(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(workingDirectory, ".repo-sync.yaml"), []byte("source_remote: [unbalanced"), 0o644))

	_, resolveError := syncrepos.ResolveParameters("", workingDirectory, syncrepos.FlagOverrides{})
	require.Error(testInstance, resolveError)
}
