// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package framework runs a single breathed instance inside a Docker
// container and watches its logs for a pass/fail marker, the way the
// teacher's dockerlauncher drove NFF-Go binaries under test. It exists
// to give engine.Options.Tolerant fault-tolerance scenarios (spec.md's
// S6) a process-isolated harness: a caller launches a container and
// waits for the pass/fail marker its engine logs, which reports
// whether the tolerant-mode engine restarted its dead apps in-process;
// Kill and Remove end and clean up the container.
// This package launches and watches one container; it does not
// provision a network between containers, since spec.md's engine has
// no networking concept of its own to exercise across one.
package framework

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/intel-go/breathe/internal/common"
)

// Outcome is the terminal state of a launched container's test run.
type Outcome int

// Outcome values.
const (
	OutcomePending Outcome = iota
	OutcomePassed
	OutcomeFailed
	OutcomeTimedOut
)

var (
	passedRegexp = regexp.MustCompile(`^TEST PASSED$`)
	failedRegexp = regexp.MustCompile(`^TEST FAILED$`)
)

// Config describes one containerized breathed run.
type Config struct {
	// Image is the Docker image tag to run, expected to invoke
	// cmd/breathed with an INI config baked in or bind-mounted.
	Image string
	// Cmd overrides the image's default command, if set.
	Cmd []string
	// RequestTimeout bounds each individual Docker API call.
	RequestTimeout time.Duration
}

// RunningContainer is a launched, running container being watched for
// its pass/fail marker.
type RunningContainer struct {
	cfg         Config
	cl          *client.Client
	containerID string
}

// Launch creates and starts a container per cfg using the Docker
// daemon reachable through the standard DOCKER_HOST environment, then
// returns immediately: the container runs concurrently with the
// caller.
func Launch(cfg Config) (*RunningContainer, error) {
	cl, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, common.Wrap(err, "framework: creating docker client", common.Fail)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	resp, err := cl.ContainerCreate(ctx, &container.Config{
		Image: cfg.Image,
		Cmd:   cfg.Cmd,
		Tty:   true,
	}, nil, nil, nil, "")
	if err != nil {
		return nil, common.Wrap(err, "framework: creating container from "+cfg.Image, common.Fail)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer startCancel()
	if err := cl.ContainerStart(startCtx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return nil, common.Wrap(err, "framework: starting container "+resp.ID, common.Fail)
	}

	return &RunningContainer{cfg: cfg, cl: cl, containerID: resp.ID}, nil
}

// Wait tails the container's combined stdout/stderr until it sees a
// "TEST PASSED"/"TEST FAILED" marker line or the context is canceled.
func (rc *RunningContainer) Wait(ctx context.Context) Outcome {
	logs, err := rc.cl.ContainerLogs(ctx, rc.containerID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		common.LogWarning("framework: reading logs of", rc.containerID, ":", err)
		return OutcomeFailed
	}
	defer logs.Close()

	scanner := bufio.NewScanner(logs)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case passedRegexp.MatchString(line):
			return OutcomePassed
		case failedRegexp.MatchString(line):
			return OutcomeFailed
		}
		select {
		case <-ctx.Done():
			return OutcomeTimedOut
		default:
		}
	}
	return OutcomeFailed
}

// Kill sends SIGKILL to the container, ending the engine process
// inside it outright; the fault shield's app restarts do not apply to
// a killed process.
func (rc *RunningContainer) Kill(ctx context.Context) error {
	if err := rc.cl.ContainerKill(ctx, rc.containerID, "KILL"); err != nil {
		return common.Wrap(err, "framework: killing container "+rc.containerID, common.Fail)
	}
	return nil
}

// Remove stops (if needed) and deletes the container, freeing its
// resources once a test finishes.
func (rc *RunningContainer) Remove(ctx context.Context) error {
	err := rc.cl.ContainerRemove(ctx, rc.containerID, types.ContainerRemoveOptions{Force: true})
	if err != nil {
		return common.Wrap(err, "framework: removing container "+rc.containerID, common.Fail)
	}
	return nil
}

// ID returns the Docker container ID, useful for logging in a test
// failure message.
func (rc *RunningContainer) ID() string { return rc.containerID }

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}
