package clock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassController_Sequence(t *testing.T) {
	p := NewPassController()
	require.Equal(t, 0.99999, p.Gamma(1))
	require.Equal(t, 0.9999, p.Gamma(2))
	require.Equal(t, 0.999, p.Gamma(3))
	require.InDelta(t, 0.9*0.999, p.Gamma(4), 1e-15)
	require.InDelta(t, 0.9*0.9*0.999, p.Gamma(5), 1e-15)
}
