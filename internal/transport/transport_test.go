package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forgerun/runnerd/internal/config"
	"github.com/forgerun/runnerd/internal/engine"
	"github.com/forgerun/runnerd/internal/runregistry"
	"github.com/forgerun/runnerd/internal/service"
	"github.com/stretchr/testify/require"
)

const plan1 = `
<plan id="nightly" >
</plan>

<step name="first" desc="first step" >
  /bin/true
</step>
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ruleDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ruleDir, "etl"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ruleDir, "etl", "nightly.conf"), []byte(plan1), 0o644))

	cfg := &config.Config{PlanRuleDir: ruleDir, PlanRuleLog: t.TempDir()}
	svc := service.New(cfg, runregistry.New(), engine.NewScheduler(), nil, nil)
	srv := NewServer(svc, nil)
	return httptest.NewServer(srv)
}

func TestListPlanSetsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/plan-sets")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sets []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sets))
	require.Equal(t, []string{"etl"}, sets)
}

func TestListPlanEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/plan-sets/etl/nightly")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []service.StepRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	require.Equal(t, "first", records[0].Name)
}

func TestExecuteAndShowStatusEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	defer ts.Close()

	body, err := json.Marshal(map[string]string{"set": "etl", "plan": "nightly"})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/v1/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var key struct{ ID uint32 }
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&key))
	require.Equal(t, uint32(1), key.ID)

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/v1/runs/1")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var lines []string
		_ = json.NewDecoder(resp.Body).Decode(&lines)
		for _, l := range lines {
			if bytes.Contains([]byte(l), []byte("Plan is ended")) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShowStatusMissingRunReturns404(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs/999")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
