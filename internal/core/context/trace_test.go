package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceRoundTrip(t *testing.T) {
	trace := &TraceContext{TraceID: "t-1", SpanID: "s-1", RequestID: "r-1"}

	ctx := WithTrace(context.Background(), trace)
	assert.Same(t, trace, GetTrace(ctx))
}

func TestGetTrace_AbsentIsNil(t *testing.T) {
	assert.Nil(t, GetTrace(context.Background()))
}
