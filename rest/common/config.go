package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// ServiceName identifies the server in health responses and metrics.
	ServiceName = "adrodb"

	// Version is reported by the health endpoint and the version command.
	Version = "0.1.0"
)

// --------------------------------------------------------------------------
// REST server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the REST server.
type ServerConfig struct {
	// Listen endpoint (tcp://host:port or unix:///path)
	Endpoint string

	// Database file path, empty selects the engine default
	DBPath string

	// Request timeout in seconds
	TimeoutSecond int

	// Collections materialized at startup
	Collections []string

	// Materialize unknown collections on first access instead of
	// answering not_initialized
	AutoCreate bool

	// Logging configuration
	LogLevel string
	LogJSON  bool
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("REST Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Auto Create", strconv.FormatBool(c.AutoCreate))

	addSection("Storage")
	if c.DBPath == "" {
		addField("Database", "(engine default)")
	} else {
		addField("Database", c.DBPath)
	}

	if len(c.Collections) > 0 {
		addSection("Collections")
		for i, name := range c.Collections {
			addField(strconv.Itoa(i), name)
		}
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	if c.LogJSON {
		addField("Log Format", "json")
	} else {
		addField("Log Format", "console")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// REST client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for the REST client.
type ClientConfig struct {
	// Server endpoint (tcp://host:port or unix:///path)
	Endpoint string

	// Request timeout in seconds
	TimeoutSecond int

	// Transport-level retries; HTTP-level errors are never retried
	RetryCount int

	// Body codec name (json, msgpack or gob)
	Codec string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Codec", c.Codec)

	return sb.String()
}

// --------------------------------------------------------------------------
// Endpoint Grammar
// --------------------------------------------------------------------------

// ParseEndpoint splits an endpoint of the form tcp://host:port or
// unix:///path into the network and address arguments net.Listen and
// net.Dial expect. A bare host:port is treated as tcp.
func ParseEndpoint(endpoint string) (network, addr string, err error) {
	s := strings.TrimSpace(endpoint)

	switch {
	case s == "":
		return "", "", fmt.Errorf("empty endpoint")
	case strings.HasPrefix(s, "tcp://"):
		network, addr = "tcp", strings.TrimPrefix(s, "tcp://")
	case strings.HasPrefix(s, "unix://"):
		network, addr = "unix", strings.TrimPrefix(s, "unix://")
	case strings.Contains(s, "://"):
		scheme, _, _ := strings.Cut(s, "://")
		return "", "", fmt.Errorf("unsupported endpoint scheme %q (expected tcp or unix)", scheme)
	default:
		network, addr = "tcp", s
	}

	if addr == "" {
		return "", "", fmt.Errorf("endpoint %q has no address", endpoint)
	}
	return network, addr, nil
}
