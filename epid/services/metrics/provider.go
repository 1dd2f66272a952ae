/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var logger = logging.MustGetLogger("services", "metrics")

type (
	CounterOpts = metrics.CounterOpts
	Counter     = metrics.Counter

	GaugeOpts = metrics.GaugeOpts
	Gauge     = metrics.Gauge

	HistogramOpts = metrics.HistogramOpts
	Histogram     = metrics.Histogram

	Provider = metrics.Provider
)

// NewDisabledProvider returns a provider whose metrics discard every observation.
func NewDisabledProvider() Provider {
	return &disabled.Provider{}
}

// PrometheusProvider registers its metrics with a prometheus.Registerer.
type PrometheusProvider struct {
	registerer prometheus.Registerer
}

func NewPrometheusProvider(registerer prometheus.Registerer) *PrometheusProvider {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusProvider{registerer: registerer}
}

func (p *PrometheusProvider) NewCounter(o CounterOpts) Counter {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
	}, o.LabelNames)
	return &counter{cv: register(p.registerer, cv)}
}

func (p *PrometheusProvider) NewGauge(o GaugeOpts) Gauge {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
	}, o.LabelNames)
	return &gauge{gv: register(p.registerer, gv)}
}

func (p *PrometheusProvider) NewHistogram(o HistogramOpts) Histogram {
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
		Buckets:   o.Buckets,
	}, o.LabelNames)
	return &histogram{hv: register(p.registerer, hv)}
}

// register returns the collector already registered under the same name, if any.
func register[C prometheus.Collector](r prometheus.Registerer, c C) C {
	err := r.Register(c)
	if err == nil {
		return c
	}
	are := prometheus.AlreadyRegisteredError{}
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			logger.Warnf("metric already registered, reusing it: %v", err)
			return existing
		}
	}
	panic(err)
}

type counter struct {
	cv     *prometheus.CounterVec
	labels []string
}

func (c *counter) With(labelValues ...string) Counter {
	return &counter{cv: c.cv, labels: append(append([]string{}, c.labels...), labelValues...)}
}

func (c *counter) Add(delta float64) {
	c.cv.With(toLabels(c.labels)).Add(delta)
}

type gauge struct {
	gv     *prometheus.GaugeVec
	labels []string
}

func (g *gauge) With(labelValues ...string) Gauge {
	return &gauge{gv: g.gv, labels: append(append([]string{}, g.labels...), labelValues...)}
}

func (g *gauge) Add(delta float64) {
	g.gv.With(toLabels(g.labels)).Add(delta)
}

func (g *gauge) Set(value float64) {
	g.gv.With(toLabels(g.labels)).Set(value)
}

type histogram struct {
	hv     *prometheus.HistogramVec
	labels []string
}

func (h *histogram) With(labelValues ...string) Histogram {
	return &histogram{hv: h.hv, labels: append(append([]string{}, h.labels...), labelValues...)}
}

func (h *histogram) Observe(value float64) {
	h.hv.With(toLabels(h.labels)).Observe(value)
}

// toLabels turns name/value pairs into prometheus labels. A trailing name
// without a value gets the value "unknown".
func toLabels(pairs []string) prometheus.Labels {
	labels := prometheus.Labels{}
	for i := 0; i < len(pairs); i += 2 {
		value := "unknown"
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		labels[pairs[i]] = value
	}
	return labels
}
