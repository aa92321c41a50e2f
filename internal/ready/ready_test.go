package ready

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGate_StartsNotReady(t *testing.T) {
	g := New()
	require.False(t, g.IsReady())
}

func TestGate_MarkReadyTransitionsOnce(t *testing.T) {
	g := New()
	g.MarkReady()
	require.True(t, g.IsReady())

	select {
	case <-g.Done():
	default:
		t.Fatal("Done channel should be closed after MarkReady")
	}

	// Calling MarkReady again must not panic (would double-close the channel).
	require.NotPanics(t, g.MarkReady)
}

func TestGate_DoneBlocksUntilReady(t *testing.T) {
	g := New()

	select {
	case <-g.Done():
		t.Fatal("Done should not be closed before MarkReady")
	case <-time.After(10 * time.Millisecond):
	}

	g.MarkReady()

	select {
	case <-g.Done():
	case <-time.After(10 * time.Millisecond):
		t.Fatal("Done should be closed immediately after MarkReady")
	}
}
