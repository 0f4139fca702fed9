/*
Package log provides module scoped zerolog loggers for the sequencer
components, configured once per process through viper.

The configuration is a toml file. Every field is optional:

 # default level of every module; debug/info/warn/error/fatal/panic
 level = "info"

 # output format; console, console_no_color or json
 formatter = "json"

 # stdout, stderr or a file path
 out = "stderr"

 # print source file and line
 caller = false

 # time field layout, see time/format.go
 timefieldformat = "2006-01-02T15:04:05Z07:00"

 # modules may override level and out
 [blockproducer]
 level = "debug"

 [db]
 out = "/var/log/zkrollup/db.log"

The file is looked up as zkrollup_log.toml in the working directory, or at
the path set in the ZKROLLUP_LOGCONFIG environment variable.
*/
package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	colorable "github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	confFilePathKey     = "LOGCONFIG"
	confEnvPrefix       = "ZKROLLUP"
	defaultConfFileName = "zkrollup_log"

	moduleKey = "module"
)

var (
	baseLogger = zerolog.New(os.Stderr)
	baseLevel  = zerolog.InfoLevel

	logInitLock sync.Mutex
	isLogInit   = false
	viperConf   = viper.New()
)

// Logger is a zerolog logger bound to a module name.
type Logger struct {
	*zerolog.Logger
	name  string
	level zerolog.Level
}

func loadConfigFile() {
	viperConf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperConf.SetEnvPrefix(confEnvPrefix)
	viperConf.AutomaticEnv()

	viperConf.SetConfigType("toml")
	viperConf.SetConfigName(defaultConfFileName)
	viperConf.AddConfigPath(".")

	if confFilePath := viperConf.GetString(confFilePathKey); confFilePath != "" {
		viperConf.SetConfigFile(confFilePath)
		baseLogger.Info().Str("file", confFilePath).Msg("Init logger using a configuration file")
	}

	if err := viperConf.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			baseLogger.Error().Err(err).Msg("Fail to read the logger config file")
		}
	}
}

func initLog() {
	if format := viperConf.GetString("timefieldformat"); format != "" {
		zerolog.TimeFieldFormat = format
	}

	out := io.Writer(os.Stderr)
	if outputName := viperConf.GetString("out"); outputName != "" {
		if o, err := getOutput(outputName); err == nil {
			out = o
		} else {
			baseLogger.Warn().Err(err).Str("outputName", outputName).Msg("Fail to open the log output, using stderr")
		}
	}
	baseLogger = baseLogger.Output(formatOutput(out, viperConf.GetString("formatter")))

	if viperConf.GetBool("caller") {
		baseLogger = baseLogger.With().Caller().Logger()
	}

	baseLevel = parseLevel(viperConf.GetString("level"), zerolog.InfoLevel)
	baseLogger = baseLogger.With().Timestamp().Logger().Level(baseLevel)
}

func formatOutput(out io.Writer, formatter string) io.Writer {
	switch strings.ToLower(formatter) {
	case "", "json":
		return out
	case "console":
		return zerolog.ConsoleWriter{Out: colorable.NewColorable(asFile(out)), NoColor: false, TimeFormat: zerolog.TimeFieldFormat}
	case "console_no_color":
		return zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: zerolog.TimeFieldFormat}
	default:
		baseLogger.Warn().Str("formatter", formatter).Msg("Invalid log formatter, allowed: console/console_no_color/json")
		return out
	}
}

func asFile(out io.Writer) *os.File {
	if f, ok := out.(*os.File); ok {
		return f
	}
	return os.Stderr
}

func parseLevel(level string, fallback zerolog.Level) zerolog.Level {
	if level == "" {
		return fallback
	}
	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		baseLogger.Warn().Err(err).Str("level", level).Msg("Fail to parse the log level")
		return fallback
	}
	return zLevel
}

func ensureInit(readConfig bool) {
	if isLogInit {
		return
	}
	if readConfig {
		loadConfigFile()
	}
	initLog()
	isLogInit = true
}

// NewLogger returns a logger tagged with moduleName. Module sections of the
// configuration override the base level and output.
func NewLogger(moduleName string) *Logger {
	logInitLock.Lock()
	defer logInitLock.Unlock()
	ensureInit(true)

	zLogger := baseLogger.With().Str(moduleKey, moduleName).Logger()
	zLevel := baseLevel

	if subConf := viperConf.Sub(moduleName); subConf != nil {
		if outputName := subConf.GetString("out"); outputName != "" {
			if out, err := getOutput(outputName); err == nil {
				zLogger = zLogger.Output(out)
			} else {
				baseLogger.Warn().Err(err).Str("outputName", outputName).Str(moduleKey, moduleName).
					Msg("Fail to open the module log output, using the base output")
			}
		}
		if level := subConf.GetString("level"); level != "" {
			zLevel = parseLevel(level, zerolog.InfoLevel)
			zLogger = zLogger.Level(zLevel)
		}
	}

	return &Logger{
		Logger: &zLogger,
		name:   moduleName,
		level:  zLevel,
	}
}

// Default returns the base logger, without a module tag.
func Default() *Logger {
	logInitLock.Lock()
	defer logInitLock.Unlock()
	ensureInit(false)

	return &Logger{
		Logger: &baseLogger,
		name:   "",
		level:  baseLevel,
	}
}

var errEmptyName = errors.New("empty log output name")

// getOutput resolves stdout, stderr or a file path opened for appending.
func getOutput(outName string) (*os.File, error) {
	switch outName {
	case "":
		return nil, errEmptyName
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(outName, os.O_WRONLY|os.O_CREATE|os.O_APPEND|os.O_SYNC, 0644)
	}
}

// Name returns the module name of the logger.
func (logger *Logger) Name() string {
	return logger.name
}

// IsDebugEnabled reports whether debug events are written, so callers can
// skip building expensive fields.
func (logger *Logger) IsDebugEnabled() bool {
	return logger.level <= zerolog.DebugLevel
}

// Level returns the logger level name.
func (logger *Logger) Level() string {
	return logger.level.String()
}
