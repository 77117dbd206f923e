package log

const (
	// ModeProduction is the production logger mode.
	ModeProduction = "production"
	// ModeDevelopment is the development logger mode.
	ModeDevelopment = "development"
	// EncodingConsole is console (human-readable) encoding.
	EncodingConsole = "console"
	// EncodingJSON is JSON encoding.
	EncodingJSON = "json"
	// StderrFile routes logs to stderr instead of a file.
	StderrFile = "-"
)

// Log level names (for config mapping).
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

const (
	appName     = "notibar"
	logFileName = "notibar.log"
)
