package authz

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
    for _, valid := range []string{"TODO", "IN_PROGRESS", "REVIEW", "DONE"} {
        s, ok := ParseStatus(valid)
        require.True(t, ok)
        require.Equal(t, Status(valid), s)
    }
    _, ok := ParseStatus("done")
    require.False(t, ok)
}

func TestCanTransition(t *testing.T) {
    t.Run("same status is a no-op", func(t *testing.T) {
        forced, err := CanTransition(RoleMember, StatusDone, StatusDone)
        require.NoError(t, err)
        require.False(t, forced)
    })

    t.Run("free movement below DONE", func(t *testing.T) {
        cases := []struct{ from, to Status }{
            {StatusTodo, StatusInProgress},
            {StatusInProgress, StatusReview},
            {StatusReview, StatusTodo},
            {StatusDone, StatusInProgress}, // reopening is allowed
        }
        for _, tc := range cases {
            for _, role := range []Role{RoleAdmin, RoleManager, RoleMember} {
                forced, err := CanTransition(role, tc.from, tc.to)
                require.NoError(t, err, "%s: %s -> %s", role, tc.from, tc.to)
                require.False(t, forced)
            }
        }
    })

    t.Run("manager completes from review", func(t *testing.T) {
        forced, err := CanTransition(RoleManager, StatusReview, StatusDone)
        require.NoError(t, err)
        require.False(t, forced)
    })

    t.Run("member never reaches DONE", func(t *testing.T) {
        for _, from := range []Status{StatusTodo, StatusInProgress, StatusReview} {
            _, err := CanTransition(RoleMember, from, StatusDone)
            require.ErrorIs(t, err, ErrForbidden, "from %s", from)
        }
    })

    t.Run("early DONE needs force", func(t *testing.T) {
        forced, err := CanTransition(RoleAdmin, StatusInProgress, StatusDone)
        require.ErrorIs(t, err, ErrInvalidTransition)
        require.True(t, forced)
    })
}

func TestForceTransition(t *testing.T) {
    t.Run("admin forces DONE from TODO", func(t *testing.T) {
        forced, err := ForceTransition(RoleAdmin, StatusTodo, StatusDone)
        require.NoError(t, err)
        require.True(t, forced)
    })

    t.Run("regular completion is not marked forced", func(t *testing.T) {
        forced, err := ForceTransition(RoleManager, StatusReview, StatusDone)
        require.NoError(t, err)
        require.False(t, forced)
    })

    t.Run("force does not help a member", func(t *testing.T) {
        _, err := ForceTransition(RoleMember, StatusReview, StatusDone)
        require.ErrorIs(t, err, ErrForbidden)
    })
}
