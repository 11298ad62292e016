// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"io"

	"github.com/intel-go/breathe/app"
)

// report emits the three-section end-of-run textual report: load
// (throughput), per-link (packets sent, loss rate), per-app (custom
// report hook output). w may be nil, in which case the report is
// dropped after being generated (still useful for its side effect of
// invoking every app's Report hook).
func (e *Engine) report(w io.Writer) {
	lines := make([]string, 0, 8+len(e.linkArray)+len(e.appArray))
	lines = append(lines, "load report:")
	lines = append(lines, fmt.Sprintf("  breaths=%d frees=%d freebytes=%d freebits=%d configs=%d",
		e.breaths, e.pool.Frees(), e.pool.FreeBytes(), e.pool.FreeBits(), e.configs))

	lines = append(lines, "link report:")
	for _, le := range e.linkArray {
		sent := le.l.TxPackets
		total := sent + le.l.TxDrop
		lossRate := 0.0
		if total > 0 {
			lossRate = float64(le.l.TxDrop) / float64(total)
		}
		lines = append(lines, fmt.Sprintf("  %s: sent=%d loss=%.4f", le.spec.String(), sent, lossRate))
	}

	lines = append(lines, "app report:")
	for _, entry := range e.appArray {
		if r, ok := entry.instance.(app.Reporter); ok {
			e.shieldedCall(entry, func() {
				lines = append(lines, fmt.Sprintf("  %s: %s", entry.name, r.Report()))
			})
		}
	}

	if w == nil {
		return
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
