package rdlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// Logger is the process-wide base logger, configured once by Init.
var Logger zerolog.Logger

// Level is a logging verbosity, configured from internal/config.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds the knobs internal/config derives from flags and
// environment variables.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init configures the global Logger. Call once at process startup,
// before any component logger is derived from it.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent returns a child logger tagged with a component name
// ("api", "controller", "agent", ...).
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithResource returns a child logger tagged with the GVK and key of the
// resource an operation concerns.
func WithResource(gvk types.GVK, key types.ResourceKey) zerolog.Logger {
	return Logger.With().
		Str("gvk", gvk.String()).
		Str("resource", key.String()).
		Logger()
}

// WithCommit returns a child logger tagged with a version-store commit
// ID, for logging the outcome of an Apply.
func WithCommit(commitID string) zerolog.Logger {
	return Logger.With().Str("resourceVersion", commitID).Logger()
}

// WithNode returns a child logger tagged with a node name, used by the
// agent and the controller's heartbeat sweep.
func WithNode(nodeName string) zerolog.Logger {
	return Logger.With().Str("node", nodeName).Logger()
}

func Info(msg string) { Logger.Info().Msg(msg) }

func Debug(msg string) { Logger.Debug().Msg(msg) }

func Warn(msg string) { Logger.Warn().Msg(msg) }

func Error(msg string) { Logger.Error().Msg(msg) }

func Errorf(format string, err error) { Logger.Error().Err(err).Msg(format) }

func Fatal(msg string) { Logger.Fatal().Msg(msg) }
