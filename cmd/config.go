package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	m "github.com/wibhim/codemorph/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "codemorph"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	transformsFlagName = "transforms"
	seedFlagName       = "seed"
	perFuncFlagName    = "per-func"
	writeFlagName      = "write"
	diffFlagName       = "diff"
	reportFlagName     = "report"
	parallelFlagName   = "parallel"
	excludeFlagName    = "exclude"
	positionFlagName   = "position"
	probInsertFlagName = "p-insert"
	minInsertsFlagName = "min-inserts"
	maxInsertsFlagName = "max-inserts"
	maxSwapsFlagName   = "max-swaps"

	parallelConfigKey = "transform.parallel"
	perFuncConfigKey  = "transform.per_function"
	positionConfigKey = "transform.position"

	probInsertKey   = "transform.prob_insert"
	minInsertsKey   = "transform.min_inserts"
	maxInsertsKey   = "transform.max_inserts"
	maxSwapsKey     = "transform.max_swaps"
	recoverModeKey  = "transform.recover_mode"
	dropVarsModeKey = "transform.drop_vars_mode"
	stateMachineKey = "transform.state_machine"

	excludeConfigKey = "paths.exclude"

	defaultParallel = 1

	envPrefix = "CODEMORPH"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".codemorph.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	defaults := m.DefaultPolicy()

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(parallelConfigKey, defaultParallel)
	viper.SetDefault(perFuncConfigKey, defaults.PerFunctionStable)
	viper.SetDefault(positionConfigKey, string(defaults.Position))
	viper.SetDefault(probInsertKey, defaults.ProbInsert)
	viper.SetDefault(minInsertsKey, defaults.MinInserts)
	viper.SetDefault(maxInsertsKey, defaults.MaxInserts)
	viper.SetDefault(maxSwapsKey, defaults.MaxSwapsPerBlock)
	viper.SetDefault(recoverModeKey, string(defaults.RecoverMode))
	viper.SetDefault(dropVarsModeKey, string(defaults.DropVarsMode))
	viper.SetDefault(stateMachineKey, defaults.EnableStateMachine)
	viper.SetDefault(excludeConfigKey, []string{})

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// policyFromConfig assembles the mutation policy from the effective config.
func policyFromConfig(seedSet bool, seed int64) m.Policy {
	policy := m.DefaultPolicy()

	if seedSet {
		policy = policy.WithSeed(seed)
	}

	policy.PerFunctionStable = viper.GetBool(perFuncConfigKey)
	policy.Position = m.PositionPolicy(viper.GetString(positionConfigKey))
	policy.ProbInsert = viper.GetFloat64(probInsertKey)
	policy.MinInserts = viper.GetInt(minInsertsKey)
	policy.MaxInserts = viper.GetInt(maxInsertsKey)
	policy.MaxSwapsPerBlock = viper.GetInt(maxSwapsKey)
	policy.RecoverMode = m.RecoverMode(viper.GetString(recoverModeKey))
	policy.DropVarsMode = m.DropVarsMode(viper.GetString(dropVarsModeKey))
	policy.EnableStateMachine = viper.GetBool(stateMachineKey)

	return policy
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
