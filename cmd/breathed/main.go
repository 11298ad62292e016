// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command breathed loads a graph description from an INI config file
// and runs it under the breathe engine, exposing its counters over
// HTTP for Prometheus to scrape.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intel-go/breathe/apps/hsfilter"
	"github.com/intel-go/breathe/apps/linkstatus"
	"github.com/intel-go/breathe/apps/pcapsink"
	"github.com/intel-go/breathe/apps/pcapsource"
	"github.com/intel-go/breathe/apps/tap"
	"github.com/intel-go/breathe/apps/testapps"
	"github.com/intel-go/breathe/configfile"
	"github.com/intel-go/breathe/engine"
	"github.com/intel-go/breathe/internal/common"
)

// registry is the set of app classes a config file can reference by
// name. Adding a new apps/* package to the binary means adding one
// line here.
var registry = configfile.Registry{
	"source":     testapps.SourceClass{},
	"sink":       testapps.SinkClass{},
	"pcapsource": pcapsource.Class{},
	"pcapsink":   pcapsink.Class{},
	"tap":        tap.Class{},
	"hsfilter":   hsfilter.Class{},
	"linkstatus": linkstatus.Class{},
}

func main() {
	configPath := flag.String("config", "", "path to the INI graph description")
	hz := flag.Float64("hz", 0, "fixed breath frequency in Hz (0 selects adaptive pacing)")
	busywait := flag.Bool("busywait", false, "disable pacing entirely")
	tolerant := flag.Bool("tolerant", false, "contain panicking apps instead of crashing")
	restartDelay := flag.Duration("restart-delay", 2*time.Second, "how long a dead app waits before restart")
	linkCapacity := flag.Int("link-capacity", 0, "ring capacity for new links (power of two, 0 selects default)")
	poolSize := flag.Int("pool-size", 0, "preallocated packet buffers (0 selects default)")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until killed)")
	metricsAddr := flag.String("metrics-addr", ":9095", "address to serve Prometheus metrics on")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	if *configPath == "" {
		common.LogFatal("breathed: -config is required")
	}

	sev := common.SeverityInfo
	if *verbose {
		sev = common.SeverityPacket
	}
	common.SetSeverity(sev)

	opts := engine.Options{
		Busywait:     *busywait,
		Tolerant:     *tolerant,
		RestartDelay: *restartDelay,
		LinkCapacity: *linkCapacity,
		PoolSize:     *poolSize,
	}
	if *hz > 0 {
		opts.Hz = hz
	}
	e := engine.New(opts)

	cfg, err := configfile.Load(*configPath, registry, e.Pool())
	if err != nil {
		common.LogFatal("breathed: loading config:", err)
	}
	if err := e.Configure(cfg); err != nil {
		common.LogFatal("breathed: applying config:", err)
	}

	http.Handle("/metrics", promhttp.HandlerFor(e.Counters().Prometheus(), promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			common.LogWarning("breathed: metrics server exited:", err)
		}
	}()

	e.Main(engine.MainOptions{
		Duration:       *duration,
		ReportWriter:   os.Stdout,
		MeasureLatency: true,
	})
}
