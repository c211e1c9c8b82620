package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEverySourceIsEmbedded(t *testing.T) {
	for _, id := range []string{
		PhongVert, PhongFrag, PhongShadowVert, PhongShadowFrag,
		DepthVert, DepthFrag, QuadVert, QuadFrag, DepthDebugFrag,
	} {
		src, err := Source(id)
		require.NoError(t, err, id)
		assert.True(t, strings.HasPrefix(src, "#version 410 core"), id)
	}
	assert.Len(t, IDs(), 9)
}

func TestUnknownSource(t *testing.T) {
	_, err := Source("bloom.frag")
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Contains(t, err.Error(), "bloom.frag")
}

func TestShadowSourceCarriesBiasPolicy(t *testing.T) {
	src, err := Source(PhongShadowFrag)
	require.NoError(t, err)
	assert.Contains(t, src, "max(slopeBias * (1.0 - dot(n, l)), minBias)")
	assert.Contains(t, src, "p.z > 1.0")
	assert.Contains(t, src, "a + lit * (d + s)")
}
