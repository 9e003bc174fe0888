package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmchainx/internal/config"
)

type countingExporter struct {
	calls int
	err   error
}

func (c *countingExporter) Export(context.Context) (int, error) {
	c.calls++
	return 3, c.err
}

func TestNewScheduler(t *testing.T) {
	_, err := NewScheduler(config.ExportConfig{CronSchedule: "0 20 * * *", Timezone: "Mars/Olympus"}, &countingExporter{}, nil)
	require.Error(t, err)

	s, err := NewScheduler(config.ExportConfig{CronSchedule: "not a schedule", Timezone: "UTC"}, &countingExporter{}, nil)
	require.NoError(t, err)
	require.Error(t, s.Start())
}

func TestRunExport(t *testing.T) {
	exporter := &countingExporter{}
	s, err := NewScheduler(config.ExportConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"}, exporter, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	s.runExport()
	exporter.err = errors.New("sheets unavailable")
	s.runExport()
	s.Stop()

	require.Equal(t, 2, exporter.calls)
}
