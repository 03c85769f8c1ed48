package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/jobs"
)

func TestBuildTaskSupportedJobs(t *testing.T) {
	for _, name := range []string{
		jobs.TaskTypeOverdueSweep,
		jobs.TaskTypeRecurringSweep,
		jobs.TaskTypeReminders,
	} {
		task, err := buildTask(name, "")
		require.NoError(t, err)
		require.Equal(t, name, task.Type())
	}
}

func TestBuildTaskRatesRefreshDefaultsBase(t *testing.T) {
	task, err := buildTask(jobs.TaskTypeRatesRefresh, "")
	require.NoError(t, err)
	require.Equal(t, jobs.TaskTypeRatesRefresh, task.Type())

	var payload jobs.RatesRefreshPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "USD", payload.Base)
}

func TestBuildTaskRejectsUnknownJob(t *testing.T) {
	_, err := buildTask("invoice:unknown", "")
	require.ErrorContains(t, err, "unsupported job")
}
