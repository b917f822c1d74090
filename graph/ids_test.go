package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/swcgen/artifact"
)

func TestEntityID(t *testing.T) {
	t.Run("NewEntityID generates valid ID", func(t *testing.T) {
		id := NewEntityID(artifact.KindPort)
		assert.Equal(t, artifact.KindPort, id.Kind)
		assert.NotEmpty(t, id.ID)
	})

	t.Run("String returns correct format", func(t *testing.T) {
		id := EntityID{Kind: artifact.KindSWC, ID: "abc123"}
		assert.Equal(t, "swc:abc123", id.String())
	})

	t.Run("ParseEntityID handles all kinds", func(t *testing.T) {
		kinds := []artifact.Kind{
			artifact.KindSWC, artifact.KindInterface, artifact.KindDataElement, artifact.KindDataType,
			artifact.KindPort, artifact.KindRunnable, artifact.KindAccessPoint, artifact.KindConnection,
			artifact.KindECUComposition, artifact.KindSWCInstance, artifact.KindConnector,
		}
		for _, kind := range kinds {
			id, err := ParseEntityID(string(kind) + ":42")
			require.NoError(t, err, kind)
			assert.Equal(t, kind, id.Kind)
			assert.Equal(t, "42", id.ID)
		}
	})

	t.Run("ParseEntityID rejects invalid format", func(t *testing.T) {
		for _, input := range []string{"invalid", "", "swc:", "proposal:123"} {
			_, err := ParseEntityID(input)
			assert.Error(t, err, input)
		}
	})

	t.Run("Round trip ID conversion", func(t *testing.T) {
		original := NewEntityID(artifact.KindRunnable)
		parsed, err := ParseEntityID(original.String())
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})
}

func TestSequentialIDs(t *testing.T) {
	gen := SequentialIDs()
	assert.Equal(t, "swc:1", gen(artifact.KindSWC))
	assert.Equal(t, "swc:2", gen(artifact.KindSWC))
	assert.Equal(t, "port:1", gen(artifact.KindPort))
}
