package config

const (
	defaultDestinationDir = "~/campack/packages"
	defaultLogDir         = "~/.local/share/campack/logs"
	defaultLedgerDir      = "~/.local/share/campack"
	defaultOutputFormat   = "mov"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
			LogDir:         defaultLogDir,
			LedgerDir:      defaultLedgerDir,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Packaging: Packaging{
			OutputFormat: defaultOutputFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
