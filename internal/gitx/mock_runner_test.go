package gitx_test

import (
	"context"
	"fmt"
	"strings"
)

// MockRunner implements gitx.Runner for testing.
type MockRunner struct {
	// Responses maps "dir:args" keys to (output, error) pairs.
	Responses map[string]MockResponse
	// Calls records every invocation in order.
	Calls []string
}

type MockResponse struct {
	Output string
	Raw    []byte
	Err    error
}

func (m *MockRunner) lookup(dir string, args []string) (MockResponse, error) {
	key := dir + ":" + strings.Join(args, " ")
	m.Calls = append(m.Calls, key)
	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}
	// Also try without dir for convenience
	keyNoDir := ":" + strings.Join(args, " ")
	if resp, ok := m.Responses[keyNoDir]; ok {
		return resp, nil
	}
	return MockResponse{}, fmt.Errorf("unexpected call: dir=%q args=%v", dir, args)
}

func (m *MockRunner) Run(_ context.Context, dir string, args ...string) (string, error) {
	resp, err := m.lookup(dir, args)
	if err != nil {
		return "", err
	}
	return resp.Output, resp.Err
}

func (m *MockRunner) Output(_ context.Context, dir string, args ...string) ([]byte, error) {
	resp, err := m.lookup(dir, args)
	if err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.Raw != nil {
		return resp.Raw, nil
	}
	return []byte(resp.Output), nil
}
