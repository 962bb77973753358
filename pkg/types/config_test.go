package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "sqlite backend passes",
			config:  Config{Backend: BackendSQLite, DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name: "negative batch size rejected",
			config: Config{
				Backend: BackendSQLite,
				Worker:  &WorkerConfig{BatchSize: -1},
			},
			wantErr: ErrBatchSizeInvalid,
		},
		{
			name: "negative idle interval rejected",
			config: Config{
				Backend: BackendSQLite,
				Worker:  &WorkerConfig{IdleSeconds: -1},
			},
			wantErr: ErrIdleSecondsInvalid,
		},
		{
			name: "explicit worker settings pass",
			config: Config{
				Backend: BackendSQLite,
				Worker:  &WorkerConfig{BatchSize: 500, IdleSeconds: 10},
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigWorkerDefaults(t *testing.T) {
	var c Config
	assert.Equal(t, DefaultBatchSize, c.BatchSize())
	assert.Equal(t, DefaultIdleSeconds, c.IdleSeconds())

	c.Worker = &WorkerConfig{}
	assert.Equal(t, DefaultBatchSize, c.BatchSize(), "zero batch size falls back to default")
	assert.Equal(t, DefaultIdleSeconds, c.IdleSeconds(), "zero idle interval falls back to default")

	c.Worker = &WorkerConfig{BatchSize: 250, IdleSeconds: 30}
	assert.Equal(t, 250, c.BatchSize())
	assert.Equal(t, 30, c.IdleSeconds())
}
