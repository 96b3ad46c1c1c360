package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"wisefido-sleep-alert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const snapshotJSON = `{
	"device_code": "BCG-0001",
	"timestamp": 1717171200,
	"sleep_quality_score": 55,
	"respiratory_rate": {"average_bpm": 15},
	"sleep_summary_data": {"deep_sleep_overall_minutes": 90, "rem_sleep_overall_minutes": 100, "total_sleep_duration_minutes": 450},
	"movement": {"total_movement_duration_minutes": 30, "total_inactivity_duration_minutes": 300}
}`

func TestEvaluateCommand(t *testing.T) {
	dir := t.TempDir()
	snapshot := writeFile(t, dir, "snapshot.json", snapshotJSON)
	rules := writeFile(t, dir, "rules.json", `[
		{"id":"r1","name":"睡眠质量过低","type":"sleep_quality","operator":"<","threshold":70,"level":"medium","enabled":true},
		{"id":"r2","name":"睡眠质量严重不足","type":"sleep_quality","operator":"<","threshold":60,"level":"high","enabled":false},
		{"id":"r3","name":"体动过多","type":"total_movement","operator":">","threshold":60,"level":"medium","enabled":true}
	]`)

	out, err := runCLI(t, "evaluate", "--snapshot", snapshot, "--rules", rules)
	require.NoError(t, err)

	var records []models.AlertRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records), out)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].RuleID)
	assert.Equal(t, 55.0, records[0].TriggerValue)
	assert.Equal(t, int64(1717171200000), records[0].SleepDateMillis)

	existing, err := json.Marshal(records)
	require.NoError(t, err)
	recordsPath := writeFile(t, dir, "records.json", string(existing))

	out, err = runCLI(t, "evaluate", "--snapshot", snapshot, "--rules", rules, "--records", recordsPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestEvaluateCommand_DefaultRules(t *testing.T) {
	snapshot := writeFile(t, t.TempDir(), "snapshot.json", snapshotJSON)

	out, err := runCLI(t, "evaluate", "--snapshot", snapshot)
	require.NoError(t, err)

	var records []models.AlertRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records), out)
	var names []string
	for _, r := range records {
		names = append(names, r.RuleName)
		assert.NotEmpty(t, r.RuleID, r.RuleName)
	}
	assert.Contains(t, names, "睡眠质量过低")
	assert.Contains(t, names, "睡眠质量严重不足")
}

func TestEvaluateCommand_Errors(t *testing.T) {
	_, err := runCLI(t, "evaluate")
	assert.Error(t, err)

	bad := writeFile(t, t.TempDir(), "snapshot.json", `{"timestamp": 1717171200}`)
	_, err = runCLI(t, "evaluate", "--snapshot", bad)
	assert.ErrorIs(t, err, models.ErrInvalidSnapshot)
}
