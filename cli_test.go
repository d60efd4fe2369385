package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
)

func TestTailorCmd_AdditionalKeepsCommas(t *testing.T) {
	cmd := newTailorCmd()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--resume", "cv.md",
		"--additional", "Right to work in the UK, no sponsorship required",
		"--additional", "Available from March",
		"--confirm", "Airflow,dbt",
	}))

	additional, err := cmd.Flags().GetStringArray("additional")
	require.NoError(t, err)
	assert.Equal(t, []string{"Right to work in the UK, no sponsorship required", "Available from March"}, additional)

	confirmed, err := cmd.Flags().GetStringSlice("confirm")
	require.NoError(t, err)
	assert.Equal(t, []string{"Airflow", "dbt"}, confirmed)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "analyze", "match", "ats", "tailor", "salary", "export"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSalaryCmd_JSON(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("REDIS_URL", "")
	t.Setenv("ATS_RULES_PATH", "")
	t.Setenv("VOCABULARY_PATH", "")
	t.Setenv("SALARY_PATH", "")
	t.Cleanup(func() { jsonOutput = false })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"salary", "--level", "senior", "--location", "other_uk", "--json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var est jobs.SalaryEstimate
	require.NoError(t, json.Unmarshal(out.Bytes(), &est))
	assert.Equal(t, "uk", est.Country)
	assert.Equal(t, "other_uk", est.Location)
	assert.Equal(t, "£48,000 - £62,000", est.Range)
}
