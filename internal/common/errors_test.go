package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{ErrNotFound, ErrStorage, ErrMissingCredentials, ErrIndexNotConfigured,
		ErrNoVectorStore, ErrNoEntries, ErrNoChunks}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			require.False(t, errors.Is(a, b), "%v must not match %v", a, b)
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("insert post p1: %w", ErrStorage)
	require.ErrorIs(t, err, ErrStorage)
	require.Contains(t, err.Error(), "insert post p1")
}
