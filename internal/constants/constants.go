// Package constants provides shared configuration values used across the woconsole application.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "woconsole.yaml"

	// DefaultAPIAddress is the default management API address
	DefaultAPIAddress = "http://127.0.0.1:8000"

	// EnvPrefix is the prefix for environment variable overrides (WOCONSOLE_TOKEN, ...)
	EnvPrefix = "WOCONSOLE"

	// DefaultRelayHost is the default bind host for the log relay
	DefaultRelayHost = "127.0.0.1"

	// DefaultRelayPort is the default port for the log relay
	DefaultRelayPort = 8765
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout is the default timeout for API requests.
	// Site provisioning is slow on the server side, so this is generous.
	DefaultRequestTimeout = 2 * time.Minute

	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// TailPollInterval is how often the relay re-checks a tailed file when
	// no filesystem notification arrives
	TailPollInterval = 500 * time.Millisecond
)

// Log configuration
const (
	// ConsoleBufferSize is the number of stream lines kept per active source
	ConsoleBufferSize = 200

	// RelayBacklogLines is the number of historical lines sent when a stream opens
	RelayBacklogLines = 20

	// RelayBufferSize is the number of lines the relay keeps per source
	RelayBufferSize = 1000

	// DefaultSubscriptionBuffer is the default size for subscription channels
	DefaultSubscriptionBuffer = 100

	// ScannerBufferSize is the initial buffer size for log line scanning
	ScannerBufferSize = 64 * 1024 // 64KB

	// ScannerMaxBufferSize is the maximum buffer size for log line scanning
	ScannerMaxBufferSize = 1024 * 1024 // 1MB
)

// Deploy defaults
const (
	// DefaultPHPVersion is the PHP version requested for new sites
	DefaultPHPVersion = "8.1"
)

// DefaultSources lists the log sources exposed by the management API
var DefaultSources = []string{"audit", "nginx-access", "nginx-error", "php"}

// DefaultSourcePaths maps each default source to its file on the server
var DefaultSourcePaths = map[string]string{
	"audit":        "/var/log/wo/wordops.log",
	"nginx-access": "/var/log/nginx/access.log",
	"nginx-error":  "/var/log/nginx/error.log",
	"php":          "/var/log/php/8.1/fpm/error.log",
}

// ANSI color codes for plain terminal output
var (
	// ColorReset resets the terminal color
	ColorReset = "\033[0m"

	// ColorBrightRed is used for error lines
	ColorBrightRed = "\033[91m"

	// ColorYellow is used for warning lines
	ColorYellow = "\033[33m"

	// ColorGreen is used for success lines
	ColorGreen = "\033[32m"

	// ColorCyan is used for running/progress lines
	ColorCyan = "\033[36m"

	// ColorDim is used for timestamps
	ColorDim = "\033[90m"
)
