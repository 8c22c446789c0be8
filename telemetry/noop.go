package telemetry

import (
	"io"

	"github.com/robinvdvleuten/veritas/output"
)

// noOpCollector is a collector that does nothing.
type noOpCollector struct{}

func (noOpCollector) Start(name string) Timer { return noOpTimer{} }

func (noOpCollector) Count(name string, delta int) {}

func (noOpCollector) Report(w io.Writer, styles *output.Styles) {}

type noOpTimer struct{}

func (noOpTimer) End() {}

func (noOpTimer) Child(name string) Timer { return noOpTimer{} }
