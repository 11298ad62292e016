// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package framework

import (
	"context"
	"testing"
	"time"
)

// TestLaunchAndWaitRequiresDocker exercises the full launch/wait/kill/
// remove cycle against a real Docker daemon. It is skipped whenever
// one isn't reachable, since this repo's core packages must not
// depend on Docker being present to test.
func TestLaunchAndWaitRequiresDocker(t *testing.T) {
	cfg := Config{
		Image:          "breathe-test-echo",
		Cmd:            []string{"sh", "-c", "echo TEST PASSED"},
		RequestTimeout: 5 * time.Second,
	}

	rc, err := Launch(cfg)
	if err != nil {
		t.Skipf("docker daemon unavailable, skipping: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		rc.Remove(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if got := rc.Wait(ctx); got != OutcomePassed {
		t.Errorf("Wait() = %v, want %v", got, OutcomePassed)
	}
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		OutcomePassed:   "passed",
		OutcomeFailed:   "failed",
		OutcomeTimedOut: "timed out",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
