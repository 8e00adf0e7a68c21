package services

import (
	"context"

	"matchmaker/domain/interfaces"
)

type noopMetrics struct{}

func (noopMetrics) RecordStateTransition(context.Context, string, string) {}
func (noopMetrics) RecordMatchAborted(context.Context, string, string)    {}
func (noopMetrics) RecordVoteCast(context.Context)                        {}
func (noopMetrics) RecordPickTimeout(context.Context)                     {}
func (noopMetrics) RecordQueueJoin(context.Context, string)               {}
func (noopMetrics) RecordResult(context.Context, string, bool)            {}

func metricsOrNoop(m interfaces.MatchMetrics) interfaces.MatchMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
