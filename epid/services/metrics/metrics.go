/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"time"
)

const (
	GroupLabel   = "group"
	OutcomeLabel = "outcome"

	Success = "success"
	Failure = "failure"
)

var (
	noncesOpts = CounterOpts{
		Namespace:    "epid",
		Subsystem:    "issuer",
		Name:         "nonces",
		Help:         "The number of nonces handed out",
		LabelNames:   []string{GroupLabel},
		StatsdFormat: "%{#fqname}.%{group}",
	}
	issuesOpts = CounterOpts{
		Namespace:    "epid",
		Subsystem:    "issuer",
		Name:         "issue_operations",
		Help:         "The number of issue operations",
		LabelNames:   []string{GroupLabel, OutcomeLabel},
		StatsdFormat: "%{#fqname}.%{group}.%{outcome}",
	}
	issueDurationOpts = HistogramOpts{
		Namespace:    "epid",
		Subsystem:    "issuer",
		Name:         "issue_duration",
		Help:         "Duration of an issue operation in milliseconds",
		LabelNames:   []string{GroupLabel},
		StatsdFormat: "%{#fqname}.%{group}",
		Buckets:      []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000},
	}
	joinsOpts = CounterOpts{
		Namespace:    "epid",
		Subsystem:    "member",
		Name:         "join_operations",
		Help:         "The number of join operations",
		LabelNames:   []string{GroupLabel, OutcomeLabel},
		StatsdFormat: "%{#fqname}.%{group}.%{outcome}",
	}
)

// Metrics of one group.
type Metrics struct {
	labels []string

	Nonces        Counter
	Issues        Counter
	IssueDuration Histogram
	Joins         Counter
}

func New(p Provider, group string) *Metrics {
	return &Metrics{
		labels:        []string{GroupLabel, group},
		Nonces:        p.NewCounter(noncesOpts),
		Issues:        p.NewCounter(issuesOpts),
		IssueDuration: p.NewHistogram(issueDurationOpts),
		Joins:         p.NewCounter(joinsOpts),
	}
}

func (m *Metrics) AddNonce() {
	m.Nonces.With(m.labels...).Add(1)
}

func (m *Metrics) AddIssue(noErr bool) {
	m.Issues.With(append(m.labels, OutcomeLabel, outcome(noErr))...).Add(1)
}

func (m *Metrics) ObserveIssueDuration(d time.Duration) {
	m.IssueDuration.With(m.labels...).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) AddJoin(noErr bool) {
	m.Joins.With(append(m.labels, OutcomeLabel, outcome(noErr))...).Add(1)
}

func outcome(noErr bool) string {
	if noErr {
		return Success
	}
	return Failure
}
