package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpState_Lifecycle(t *testing.T) {
	var op OpState

	op.Begin()
	require.True(t, op.Loading)
	require.False(t, op.Success)
	require.Empty(t, op.Error)

	op.Succeed("done")
	require.False(t, op.Loading)
	require.True(t, op.Success)
	require.Equal(t, "done", op.Message)

	op.Fail("Network error during fetch")
	require.False(t, op.Loading)
	require.False(t, op.Success)
	require.Equal(t, "Network error during fetch", op.Error)
	require.Empty(t, op.Message)
}

func TestListState_FailAndClearReplacesItems(t *testing.T) {
	l := ListState[int]{}
	l.SetItems([]int{1, 2, 3}, PageMeta{TotalCount: 3, TotalPages: 1, CurrentPage: 1, PageSize: 25}, "")
	require.Len(t, l.Items, 3)

	l.FailAndClear("Network error during fetch")
	require.NotNil(t, l.Items)
	require.Empty(t, l.Items)
	require.False(t, l.Op.Loading)
	require.Equal(t, "Network error during fetch", l.Op.Error)
}

func TestListState_SetItemsNormalizesNil(t *testing.T) {
	l := ListState[string]{}
	l.SetItems(nil, PageMeta{}, "ok")
	require.NotNil(t, l.Items)
	require.Empty(t, l.Items)
	require.True(t, l.Op.Success)
}

func TestInflightGuard_SameKeyBlocksUntilRelease(t *testing.T) {
	g := NewInflightGuard()

	require.True(t, g.Acquire("cr-42"))
	require.False(t, g.Acquire("cr-42"))
	require.True(t, g.Acquire("cr-43"), "different keys must not block each other")

	g.Release("cr-42")
	require.True(t, g.Acquire("cr-42"))
}
