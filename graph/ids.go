package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/swcgen/artifact"
)

// EntityID represents a typed entity identifier.
type EntityID struct {
	Kind artifact.Kind
	ID   string
}

// String returns the string representation of the entity ID.
func (e EntityID) String() string {
	return fmt.Sprintf("%s:%s", e.Kind, e.ID)
}

// ParseEntityID parses an entity ID string into its components.
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return EntityID{}, fmt.Errorf("invalid entity ID format: %s", s)
	}
	kind := artifact.Kind(parts[0])
	switch kind {
	case artifact.KindSWC, artifact.KindInterface, artifact.KindDataElement, artifact.KindDataType,
		artifact.KindPort, artifact.KindRunnable, artifact.KindAccessPoint, artifact.KindConnection,
		artifact.KindECUComposition, artifact.KindSWCInstance, artifact.KindConnector:
		return EntityID{Kind: kind, ID: parts[1]}, nil
	default:
		return EntityID{}, fmt.Errorf("unknown entity kind: %s", parts[0])
	}
}

// NewEntityID generates a new unique entity ID for the given kind.
func NewEntityID(kind artifact.Kind) EntityID {
	return EntityID{
		Kind: kind,
		ID:   uuid.New().String(),
	}
}

// IDGenerator allocates entity ids. Projects use NewEntityID unless one is
// supplied with WithIDGenerator.
type IDGenerator func(kind artifact.Kind) string

func uuidGenerator(kind artifact.Kind) string {
	return NewEntityID(kind).String()
}

// SequentialIDs returns a generator producing kind:1, kind:2, ... per kind.
// Useful for deterministic output in tests and golden files.
func SequentialIDs() IDGenerator {
	next := make(map[artifact.Kind]int)
	return func(kind artifact.Kind) string {
		next[kind]++
		return fmt.Sprintf("%s:%d", kind, next[kind])
	}
}
