package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend   string        `json:"backend" yaml:"backend"`
	DataDir   string        `json:"data_dir" yaml:"data_dir"`
	MinterDir string        `json:"minter_dir" yaml:"minter_dir"`
	Worker    *WorkerConfig `json:"worker,omitempty" yaml:"worker,omitempty"`
}

// WorkerConfig tunes the update-queue worker.
type WorkerConfig struct {
	BatchSize   int `json:"batch_size" yaml:"batch_size"`
	IdleSeconds int `json:"idle_seconds" yaml:"idle_seconds"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Worker defaults, applied when the corresponding field is zero.
const (
	DefaultBatchSize   = 1000
	DefaultIdleSeconds = 5
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrBatchSizeInvalid   = errors.New("worker batch size must be positive")
	ErrIdleSecondsInvalid = errors.New("worker idle interval must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Worker != nil {
		if c.Worker.BatchSize < 0 {
			return ErrBatchSizeInvalid
		}
		if c.Worker.IdleSeconds < 0 {
			return ErrIdleSecondsInvalid
		}
	}
	return nil
}

// BatchSize returns the configured worker batch size, or DefaultBatchSize.
func (c Config) BatchSize() int {
	if c.Worker != nil && c.Worker.BatchSize > 0 {
		return c.Worker.BatchSize
	}
	return DefaultBatchSize
}

// IdleSeconds returns the configured worker idle interval, or
// DefaultIdleSeconds.
func (c Config) IdleSeconds() int {
	if c.Worker != nil && c.Worker.IdleSeconds > 0 {
		return c.Worker.IdleSeconds
	}
	return DefaultIdleSeconds
}
