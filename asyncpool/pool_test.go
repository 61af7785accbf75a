package asyncpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_PollReclaimsCompleted(t *testing.T) {
	p := New()
	done := make(chan struct{})
	close(done)
	p.Post(Request{Done: done, Payload: "a"})

	require.Equal(t, 1, p.Outstanding())
	p.Poll()
	require.Equal(t, 0, p.Outstanding())
}

func TestPool_PollKeepsIncomplete(t *testing.T) {
	p := New()
	p.Post(Request{Done: make(chan struct{}), Payload: "a"})

	p.Poll()
	require.Equal(t, 1, p.Outstanding())
}

func TestPool_CloseReportsStragglers(t *testing.T) {
	p := New()
	p.Post(Request{Done: make(chan struct{})})
	p.Post(Request{Done: make(chan struct{})})

	err := p.Close()
	require.ErrorContains(t, err, "2 unreceived send operations")
	require.Equal(t, 0, p.Outstanding())
}

func TestPool_CloseEmptyIsNil(t *testing.T) {
	p := New()
	require.NoError(t, p.Close())
}
