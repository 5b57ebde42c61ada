package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirectories ensures all required directories exist
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(c.Report.OutputDir, 0o755)
}

// GetReportPath returns the full path for a saved mapping; the .sz suffix is
// added when compression is enabled.
func (c *Config) GetReportPath(name string) string {
	filename := name + ".tsv"
	if c.Report.Compress {
		filename += ".sz"
	}
	return filepath.Join(c.Report.OutputDir, filename)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GetGRPCAddress returns the gRPC listen address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// BodyLimit returns the request body limit in bytes
func (c *ServerConfig) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// RequestSubject is where analysis requests are consumed
func (c *QueueConfig) RequestSubject() string {
	return c.SubjectPrefix + ".requests"
}

// SummarySubject is where computed summaries are published
func (c *QueueConfig) SummarySubject() string {
	return c.SubjectPrefix + ".summaries"
}
