package syncrepos

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chessbyte/dotfiles/internal/execshell"
	"github.com/chessbyte/dotfiles/internal/gitrepo"
	"github.com/chessbyte/dotfiles/internal/repos/discovery"
	"github.com/chessbyte/dotfiles/internal/repos/shared"
	"github.com/chessbyte/dotfiles/internal/ui"
	"github.com/chessbyte/dotfiles/internal/utils/flags"
)

const (
	commandUseConstant                    = "repo-sync [directory]"
	commandShortDescriptionConstant       = "Synchronize local repositories with their source remotes"
	commandLongDescriptionConstant        = "repo-sync fetches and merges each repository's main branch from its source remote, optionally mirroring the result to a target remote."
	commandExecutionErrorTemplateConstant = "repository sync failed: %w"
	flagSourceRemoteNameConstant          = "source-remote"
	flagSourceRemoteShorthandConstant     = "s"
	flagSourceRemoteDescriptionConstant   = "Name of the remote to pull the main branch from"
	flagTargetRemoteNameConstant          = "target-remote"
	flagTargetRemoteShorthandConstant     = "t"
	flagTargetRemoteDescriptionConstant   = "Name of the remote to mirror the main branch to"
	flagMainBranchNameConstant            = "main-branch"
	flagMainBranchShorthandConstant       = "b"
	flagMainBranchDescriptionConstant     = "Name of the integration branch to synchronize"
	flagVerboseNameConstant               = "verbose"
	flagVerboseShorthandConstant          = "v"
	flagVerboseDescriptionConstant        = "Enable interactive prompts and command logging"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the Cobra command for repository synchronization.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	Executor                     shared.GitExecutor
	Prompter                     Prompter
	WorkingDirectory             string
	HomeDirectory                string

	verboseFlagValue bool
}

// Build constructs the repo-sync command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().StringP(flagSourceRemoteNameConstant, flagSourceRemoteShorthandConstant, shared.OriginRemoteNameConstant, flagSourceRemoteDescriptionConstant)
	command.Flags().StringP(flagTargetRemoteNameConstant, flagTargetRemoteShorthandConstant, "", flagTargetRemoteDescriptionConstant)
	command.Flags().StringP(flagMainBranchNameConstant, flagMainBranchShorthandConstant, shared.MainBranchNameConstant, flagMainBranchDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), &builder.verboseFlagValue, flagVerboseNameConstant, flagVerboseShorthandConstant, false, flagVerboseDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	parameters, parametersError := builder.resolveParameters(command, workingDirectory)
	if parametersError != nil {
		return parametersError
	}

	targetDirectory := ""
	if len(arguments) > 0 {
		targetDirectory = arguments[0]
	}

	logger := builder.resolveLogger()
	executor, executorError := builder.resolveExecutor(logger, parameters.Verbose)
	if executorError != nil {
		return executorError
	}

	inspector, inspectorError := gitrepo.NewRepositoryInspector(executor)
	if inspectorError != nil {
		return inspectorError
	}

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	prompter := builder.resolvePrompter(command)

	service, serviceError := NewService(Dependencies{
		GitExecutor: executor,
		Inspector:   inspector,
		Prompter:    prompter,
		Reporter:    reporter,
		Logger:      logger,
	})
	if serviceError != nil {
		return serviceError
	}

	orchestrator, orchestratorError := NewOrchestrator(OrchestratorDependencies{
		Runner:    service,
		Inspector: inspector,
		Lister:    discovery.NewFilesystemDirectoryLister(),
		Reporter:  reporter,
		Logger:    logger,
	})
	if orchestratorError != nil {
		return orchestratorError
	}

	_, runError := orchestrator.Run(command.Context(), RunOptions{
		RootDirectory:   workingDirectory,
		TargetDirectory: targetDirectory,
		Parameters:      parameters,
	})
	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}

	return nil
}

// resolveParameters merges the configuration tiers with any flags the operator
// explicitly set on the command line.
func (builder *CommandBuilder) resolveParameters(command *cobra.Command, workingDirectory string) (Parameters, error) {
	overrides := FlagOverrides{}

	if command.Flags().Changed(flagSourceRemoteNameConstant) {
		sourceRemoteValue, _ := command.Flags().GetString(flagSourceRemoteNameConstant)
		trimmedSourceRemote := strings.TrimSpace(sourceRemoteValue)
		overrides.SourceRemote = &trimmedSourceRemote
	}
	if command.Flags().Changed(flagTargetRemoteNameConstant) {
		targetRemoteValue, _ := command.Flags().GetString(flagTargetRemoteNameConstant)
		trimmedTargetRemote := strings.TrimSpace(targetRemoteValue)
		overrides.TargetRemote = &trimmedTargetRemote
	}
	if command.Flags().Changed(flagMainBranchNameConstant) {
		mainBranchValue, _ := command.Flags().GetString(flagMainBranchNameConstant)
		trimmedMainBranch := strings.TrimSpace(mainBranchValue)
		overrides.MainBranch = &trimmedMainBranch
	}
	if command.Flags().Changed(flagVerboseNameConstant) {
		verboseValue := builder.verboseFlagValue
		overrides.Verbose = &verboseValue
	}

	homeDirectory := builder.HomeDirectory
	if len(homeDirectory) == 0 {
		if resolvedHomeDirectory, homeError := os.UserHomeDir(); homeError == nil {
			homeDirectory = resolvedHomeDirectory
		}
	}

	return ResolveParameters(homeDirectory, workingDirectory, overrides)
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory, nil
	}
	return os.Getwd()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

// resolveExecutor builds the git executor, attaching the console event logger
// when verbose human-readable output is requested.
func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger, verbose bool) (shared.GitExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	if verbose && builder.humanReadableLoggingEnabled() {
		return execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command) Prompter {
	if builder.Prompter != nil {
		return builder.Prompter
	}
	return NewIOPrompter(command.InOrStdin(), command.OutOrStdout())
}

func (builder *CommandBuilder) humanReadableLoggingEnabled() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}
