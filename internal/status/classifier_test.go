// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package status

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/proofread/internal/ollama"
)

type fakeProber struct {
	mu         sync.Mutex
	healthy    bool
	healthErr  error
	models     []string
	listErr    error
	healthHook func(calls int) (bool, error)
	healthN    int
	listN      int
}

func (f *fakeProber) HealthCheck(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthN++
	if f.healthHook != nil {
		return f.healthHook(f.healthN)
	}
	return f.healthy, f.healthErr
}

func (f *fakeProber) ListModels(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listN++
	return f.models, f.listErr
}

func installed(path string) Detector {
	return DetectorFunc(func() (string, bool) { return path, path != "" })
}

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name     string
		detector Detector
		prober   *fakeProber
		want     Status
		wantList int
	}{
		{
			name:     "not installed",
			detector: installed(""),
			prober:   &fakeProber{healthy: true},
			want:     NotInstalled(),
		},
		{
			name:     "not running",
			detector: installed("/usr/bin/ollama"),
			prober:   &fakeProber{healthErr: &ollama.Error{Kind: ollama.KindNotRunning}},
			want:     Installed(false),
		},
		{
			name:     "unhealthy status code",
			detector: installed("/usr/bin/ollama"),
			prober:   &fakeProber{healthy: false},
			want:     Installed(false),
		},
		{
			name:     "connected",
			detector: installed("/usr/bin/ollama"),
			prober:   &fakeProber{healthy: true, models: []string{"gemma3:4b"}},
			want:     Connected([]string{"gemma3:4b"}),
			wantList: 1,
		},
		{
			name:     "no models",
			detector: installed("/usr/bin/ollama"),
			prober:   &fakeProber{healthy: true, listErr: &ollama.Error{Kind: ollama.KindNoModelsAvailable}},
			want:     Connected(nil),
			wantList: 1,
		},
		{
			name:     "listing fails",
			detector: installed("/usr/bin/ollama"),
			prober:   &fakeProber{healthy: true, listErr: &ollama.Error{Kind: ollama.KindInvalidResponse}},
			want:     Failed(&ollama.Error{Kind: ollama.KindInvalidResponse}),
			wantList: 1,
		},
		{
			name:     "remote backend skips detection",
			detector: nil,
			prober:   &fakeProber{healthy: true, models: []string{"a"}},
			want:     Connected([]string{"a"}),
			wantList: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewClassifier(tc.detector, tc.prober).Classify(context.Background())
			if !got.Equal(tc.want) {
				t.Errorf("Classify() = %s, want %s", got, tc.want)
			}
			if tc.prober.listN != tc.wantList {
				t.Errorf("ListModels calls = %d, want %d", tc.prober.listN, tc.wantList)
			}
		})
	}
}

func TestClassifier_RecordsPath(t *testing.T) {
	got := NewClassifier(installed("/opt/homebrew/bin/ollama"), &fakeProber{healthy: true, models: []string{"m"}}).
		Classify(context.Background())
	if got.Path != "/opt/homebrew/bin/ollama" {
		t.Errorf("Path = %q, want the detected path", got.Path)
	}
}

type slowProber struct{ fakeProber }

func (s *slowProber) HealthCheck(ctx context.Context) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestClassifier_ProbeTimeout(t *testing.T) {
	c := NewClassifier(installed("/usr/bin/ollama"), &slowProber{}).WithProbeTimeout(20 * time.Millisecond)

	start := time.Now()
	got := c.Classify(context.Background())
	if !got.Equal(Installed(false)) {
		t.Errorf("Classify() = %s, want %s", got, Installed(false))
	}
	if time.Since(start) > time.Second {
		t.Error("probe timeout not applied")
	}
}

func TestClassifier_ErrorPreserved(t *testing.T) {
	cause := errors.New("tls")
	listErr := &ollama.Error{Kind: ollama.KindConnectionFailed, Cause: cause}
	got := NewClassifier(nil, &fakeProber{healthy: true, listErr: listErr}).Classify(context.Background())

	if !errors.Is(got.Reason(), cause) {
		t.Errorf("Reason() = %v, want it to wrap %v", got.Reason(), cause)
	}
}

func TestClassifier_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewClassifier(installed("/usr/bin/ollama"), &slowProber{}).WithProbeTimeout(time.Minute)

	time.AfterFunc(20*time.Millisecond, cancel)
	got := c.Classify(ctx)
	if !got.Equal(Checking()) {
		t.Errorf("Classify() = %s, want %s", got, Checking())
	}
}

func TestLocalDetector(t *testing.T) {
	url := "http://127.0.0.1:11434"
	detections := 0
	detect := func() (string, bool) {
		detections++
		return "", false
	}
	c := NewClassifier(LocalDetector(func() string { return url }, detect), &fakeProber{healthy: true, models: []string{"m"}})

	if got := c.Classify(context.Background()); !got.Equal(NotInstalled()) {
		t.Errorf("local URL: Classify() = %s, want %s", got, NotInstalled())
	}

	url = "http://gpu-box.lan:11434"
	if got := c.Classify(context.Background()); !got.Equal(Connected([]string{"m"})) {
		t.Errorf("remote URL: Classify() = %s, want %s", got, Connected([]string{"m"}))
	}

	url = "http://localhost:11434"
	if got := c.Classify(context.Background()); !got.Equal(NotInstalled()) {
		t.Errorf("back to local: Classify() = %s, want %s", got, NotInstalled())
	}
	if detections != 2 {
		t.Errorf("detections = %d, want 2", detections)
	}
}
