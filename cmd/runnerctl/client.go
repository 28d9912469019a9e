package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forgerun/runnerd/internal/clientconfig"
)

// clientError carries an exit code so main can translate it into the
// process's exit status (spec §6: 0 success, 2 client-side argument error,
// 4 server returned failure).
type clientError struct {
	code int
	err  error
}

func (e *clientError) Error() string { return e.err.Error() }

func argError(format string, args ...interface{}) error {
	return &clientError{code: 2, err: fmt.Errorf(format, args...)}
}

func serverError(err error) error {
	return &clientError{code: 4, err: err}
}

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ce, ok := err.(*clientError); ok {
		return ce.code
	}
	return 4
}

// resolveBaseURL expands a cfg://<name> endpoint against the client-side
// configuration file, or passes http(s):// endpoints through unchanged.
func resolveBaseURL(endpoint, clientConfigPath string) (string, *http.Client, error) {
	switch {
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint, http.DefaultClient, nil
	case strings.HasPrefix(endpoint, "cfg://"):
		name := strings.TrimPrefix(endpoint, "cfg://")
		if clientConfigPath == "" {
			return "", nil, argError("cfg:// endpoints require --client-config")
		}
		file, err := clientconfig.Load(clientConfigPath)
		if err != nil {
			return "", nil, argError("%v", err)
		}
		node, err := file.Resolve(name)
		if err != nil {
			return "", nil, argError("%v", err)
		}
		scheme := "http"
		if node.TLS() {
			scheme = "https"
		}
		return scheme + "://" + node.Address, http.DefaultClient, nil
	default:
		return "", nil, argError("unsupported endpoint scheme: %s", endpoint)
	}
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(endpoint, clientConfigPath string) (*apiClient, error) {
	base, hc, err := resolveBaseURL(endpoint, clientConfigPath)
	if err != nil {
		return nil, err
	}
	return &apiClient{baseURL: base, http: hc}, nil
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return argError("%v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return serverError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := c.http.Do(req)
	if err != nil {
		return serverError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = resp.Status
		}
		return serverError(fmt.Errorf("%s", errBody.Error))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// execute submits a plan for execution. Unlike do, it always decodes the
// run key even on a failure response: spec §4.5's execute still allocates
// and returns a run id when the synchronous parse fails, so the caller can
// point the operator at status for the failure's log line.
func (c *apiClient) execute(set, planName string) (runKey, error) {
	payload, err := json.Marshal(map[string]string{"set": set, "plan": planName})
	if err != nil {
		return runKey{}, argError("%v", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/v1/runs", bytes.NewReader(payload))
	if err != nil {
		return runKey{}, serverError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return runKey{}, serverError(err)
	}
	defer resp.Body.Close()

	var body struct {
		runKey
		Error string `json:"error"`
		Run   runKey `json:"run"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil {
		return runKey{}, serverError(decodeErr)
	}

	if resp.StatusCode >= 300 {
		key := body.Run
		if key.ID == 0 {
			key = body.runKey
		}
		return key, serverError(fmt.Errorf("%s", body.Error))
	}
	return body.runKey, nil
}
