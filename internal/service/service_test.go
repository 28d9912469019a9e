package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forgerun/runnerd/internal/config"
	"github.com/forgerun/runnerd/internal/engine"
	"github.com/forgerun/runnerd/internal/runregistry"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, dir, set, name, content string) {
	t.Helper()
	setDir := filepath.Join(dir, set)
	require.NoError(t, os.MkdirAll(setDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(setDir, name+".conf"), []byte(content), 0o644))
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	ruleDir := t.TempDir()
	logDir := t.TempDir()
	cfg := &config.Config{PlanRuleDir: ruleDir, PlanRuleLog: logDir}
	svc := New(cfg, runregistry.New(), engine.NewScheduler(), nil, nil)
	return svc, ruleDir
}

const validPlan = `
<plan id="nightly" >
</plan>

<step name="first" desc="first step" >
  /bin/true
</step>
`

const invalidPlan = `
<plan >
</plan>

<step name="first" desc="first step" >
  /bin/true
</step>
`

func TestListPlanSetsAndPlans(t *testing.T) {
	t.Parallel()

	svc, dir := newTestService(t)
	writePlan(t, dir, "etl", "nightly", validPlan)

	sets, err := svc.ListPlanSets(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"etl"}, sets)

	plans, err := svc.ListPlans(context.Background(), "etl")
	require.NoError(t, err)
	require.Equal(t, []string{"nightly"}, plans)
}

func TestListPlanRendersSteps(t *testing.T) {
	t.Parallel()

	svc, dir := newTestService(t)
	writePlan(t, dir, "etl", "nightly", validPlan)

	records, err := svc.ListPlan(context.Background(), "etl", "nightly")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "first", records[0].Name)
	require.Equal(t, "Action", records[0].Kind)
	require.Equal(t, "/bin/true", records[0].Command)
}

func TestListPlanMissingFileFails(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.ListPlan(context.Background(), "etl", "missing")
	require.Error(t, err)
}

func TestExecuteRunsPlanInBackground(t *testing.T) {
	t.Parallel()

	svc, dir := newTestService(t)
	writePlan(t, dir, "etl", "nightly", validPlan)

	key, err := svc.Execute(context.Background(), "etl", "nightly")
	require.NoError(t, err)
	require.Equal(t, uint32(1), key.ID)

	require.Eventually(t, func() bool {
		lines, err := svc.ShowStatus(context.Background(), key.ID)
		if err != nil {
			return false
		}
		for _, l := range lines {
			if strings.Contains(l, "Plan is ended") {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecuteParseFailureRecordsLineAndReturnsError(t *testing.T) {
	t.Parallel()

	svc, dir := newTestService(t)
	writePlan(t, dir, "etl", "broken", invalidPlan)

	key, err := svc.Execute(context.Background(), "etl", "broken")
	require.Error(t, err)

	lines, readErr := svc.ShowStatus(context.Background(), key.ID)
	require.NoError(t, readErr)
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "Failed to parse the plan: Plan ID is missing")
}

func TestDumpHistArchivesAndEvicts(t *testing.T) {
	t.Parallel()

	svc, dir := newTestService(t)
	writePlan(t, dir, "etl", "nightly", validPlan)

	key, err := svc.Execute(context.Background(), "etl", "nightly")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		lines, err := svc.ShowStatus(context.Background(), key.ID)
		return err == nil && len(lines) > 0 && strings.Contains(lines[len(lines)-1], "Plan is ended")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.DumpHist(context.Background(), key.ID))

	_, err = svc.ShowStatus(context.Background(), key.ID)
	require.Error(t, err)
}
