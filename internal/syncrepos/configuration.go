package syncrepos

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/chessbyte/dotfiles/internal/repos/shared"
)

const (
	configurationTypeConstant                = "yaml"
	hyphenKeySeparatorConstant               = "-"
	underscoreKeySeparatorConstant           = "_"
	configurationReadErrorTemplateConstant   = "failed to read %s: %w"
	configurationDecodeErrorTemplateConstant = "failed to parse %s: %w"
)

// globalConfigurationFileNames lists the recognized home-directory configuration files, in priority order.
var globalConfigurationFileNames = []string{".repo-sync.yaml", ".repo-sync.yml"}

// directoryConfigurationFileNames lists the recognized working-directory configuration files, in priority order.
var directoryConfigurationFileNames = []string{".repo-sync.yaml", ".repo-sync.yml", "repo-sync.yaml", "repo-sync.yml"}

// DefaultParameters returns the built-in settings applied before any configuration tier.
func DefaultParameters() Parameters {
	return Parameters{
		SourceRemote: shared.OriginRemoteNameConstant,
		TargetRemote: "",
		MainBranch:   shared.MainBranchNameConstant,
		Verbose:      false,
	}
}

// FileConfiguration carries one configuration tier. Pointer fields distinguish
// an absent key from an explicit zero value, so a higher tier never erases a
// lower one by omission.
type FileConfiguration struct {
	SourceRemote *string `mapstructure:"source_remote"`
	TargetRemote *string `mapstructure:"target_remote"`
	MainBranch   *string `mapstructure:"main_branch"`
	Verbose      *bool   `mapstructure:"verbose"`
}

// FlagOverrides carries the command-line tier. Only explicitly set flags
// populate pointers.
type FlagOverrides struct {
	SourceRemote *string
	TargetRemote *string
	MainBranch   *string
	Verbose      *bool
}

// ResolveParameters merges built-in defaults, the global configuration file,
// the directory configuration file, and command-line overrides, in that order.
func ResolveParameters(homeDirectory string, workingDirectory string, overrides FlagOverrides) (Parameters, error) {
	parameters := DefaultParameters()

	globalConfiguration, globalError := loadTierConfiguration(homeDirectory, globalConfigurationFileNames)
	if globalError != nil {
		return Parameters{}, globalError
	}
	applyFileConfiguration(&parameters, globalConfiguration)

	directoryConfiguration, directoryError := loadTierConfiguration(workingDirectory, directoryConfigurationFileNames)
	if directoryError != nil {
		return Parameters{}, directoryError
	}
	applyFileConfiguration(&parameters, directoryConfiguration)

	applyFlagOverrides(&parameters, overrides)
	return parameters, nil
}

// loadTierConfiguration reads the first recognized configuration file in the
// directory. A missing directory or file is not an error; the tier is empty.
func loadTierConfiguration(directory string, fileNames []string) (FileConfiguration, error) {
	if len(directory) == 0 {
		return FileConfiguration{}, nil
	}

	for _, fileName := range fileNames {
		configurationFilePath := filepath.Join(directory, fileName)
		fileInformation, statError := os.Stat(configurationFilePath)
		if statError != nil || fileInformation.IsDir() {
			continue
		}
		return readConfigurationFile(configurationFilePath)
	}

	return FileConfiguration{}, nil
}

// readConfigurationFile loads one file through viper and decodes it with
// hyphenated key spellings normalized to their underscore forms.
func readConfigurationFile(configurationFilePath string) (FileConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(configurationFilePath)
	viperInstance.SetConfigType(configurationTypeConstant)

	if readError := viperInstance.ReadInConfig(); readError != nil {
		return FileConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, configurationFilePath, readError)
	}

	normalizedSettings := map[string]any{}
	for settingKey, settingValue := range viperInstance.AllSettings() {
		normalizedKey := strings.ReplaceAll(settingKey, hyphenKeySeparatorConstant, underscoreKeySeparatorConstant)
		normalizedSettings[normalizedKey] = settingValue
	}

	configuration := FileConfiguration{}
	if decodeError := mapstructure.Decode(normalizedSettings, &configuration); decodeError != nil {
		return FileConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, configurationFilePath, decodeError)
	}

	return configuration, nil
}

func applyFileConfiguration(parameters *Parameters, configuration FileConfiguration) {
	if configuration.SourceRemote != nil {
		parameters.SourceRemote = *configuration.SourceRemote
	}
	if configuration.TargetRemote != nil {
		parameters.TargetRemote = *configuration.TargetRemote
	}
	if configuration.MainBranch != nil {
		parameters.MainBranch = *configuration.MainBranch
	}
	if configuration.Verbose != nil {
		parameters.Verbose = *configuration.Verbose
	}
}

func applyFlagOverrides(parameters *Parameters, overrides FlagOverrides) {
	if overrides.SourceRemote != nil {
		parameters.SourceRemote = *overrides.SourceRemote
	}
	if overrides.TargetRemote != nil {
		parameters.TargetRemote = *overrides.TargetRemote
	}
	if overrides.MainBranch != nil {
		parameters.MainBranch = *overrides.MainBranch
	}
	if overrides.Verbose != nil {
		parameters.Verbose = *overrides.Verbose
	}
}
