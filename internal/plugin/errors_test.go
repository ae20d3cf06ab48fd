package plugin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessagesContainContext(t *testing.T) {
	t.Parallel()

	require.Contains(t, ErrPluginNotFound{Name: "ghost"}.Error(), "ghost")
	require.Contains(t, ErrDuplicatePlugin{Name: "core"}.Error(), "core")

	missing := ErrMissingDependency{Plugin: "ext", Dependencies: []string{"core", "store"}}
	require.Contains(t, missing.Error(), "ext")
	require.Contains(t, missing.Error(), "core, store")

	blocked := ErrEnabledDependents{Plugin: "base", Dependents: []string{"ext"}}
	require.Contains(t, blocked.Error(), "base")
	require.Contains(t, blocked.Error(), "ext")
}

func TestErrCircularDependencyRendersCycle(t *testing.T) {
	t.Parallel()

	err := ErrCircularDependency{Cycle: []string{"aa", "bb", "cc"}}
	require.Contains(t, err.Error(), "aa -> bb -> cc -> aa")

	require.Contains(t, ErrCircularDependency{}.Error(), "circular dependency")
}

func TestLifecycleErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection refused")
	err := &LifecycleError{Plugin: "store", Stage: "activate", Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "store")
	require.Contains(t, err.Error(), "activate")
}

func TestCleanupErrorIsDistinctFromLifecycleError(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("file locked")
	err := error(&CleanupError{Plugin: "store", Stage: "uninstall", Err: cause})

	var cleanup *CleanupError
	require.ErrorAs(t, err, &cleanup)

	var lifecycle *LifecycleError
	require.False(t, errors.As(err, &lifecycle))
	require.ErrorIs(t, err, cause)
}
