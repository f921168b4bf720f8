package authz

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
    for _, valid := range []string{"ADMIN", "MANAGER", "MEMBER"} {
        r, ok := ParseRole(valid)
        require.True(t, ok)
        require.Equal(t, Role(valid), r)
    }
    for _, invalid := range []string{"", "admin", "OWNER", "root"} {
        _, ok := ParseRole(invalid)
        require.False(t, ok, "%q should not parse", invalid)
    }
}

func TestCanManage(t *testing.T) {
    require.True(t, CanManageProjects(RoleAdmin))
    require.True(t, CanManageProjects(RoleManager))
    require.False(t, CanManageProjects(RoleMember))

    require.True(t, CanManageTasks(RoleAdmin))
    require.True(t, CanManageTasks(RoleManager))
    require.False(t, CanManageTasks(RoleMember))
}

func TestCanChangeRole(t *testing.T) {
    require.True(t, CanChangeRole(RoleAdmin))
    require.False(t, CanChangeRole(RoleManager))
    require.False(t, CanChangeRole(RoleMember))
}

func TestCanDeactivateUser(t *testing.T) {
    t.Run("admin deactivates another user", func(t *testing.T) {
        require.NoError(t, CanDeactivateUser(RoleAdmin, 1, 2))
    })

    t.Run("manager deactivates another user", func(t *testing.T) {
        require.NoError(t, CanDeactivateUser(RoleManager, 1, 2))
    })

    t.Run("member cannot deactivate", func(t *testing.T) {
        err := CanDeactivateUser(RoleMember, 1, 2)
        require.ErrorIs(t, err, ErrForbidden)
    })

    t.Run("self deactivation denied for every role", func(t *testing.T) {
        for _, role := range []Role{RoleAdmin, RoleManager, RoleMember} {
            err := CanDeactivateUser(role, 7, 7)
            require.ErrorIs(t, err, ErrForbidden, "role %s", role)
        }
    })
}

func TestCanReadTask(t *testing.T) {
    assignees := []uint64{10, 11}

    t.Run("admin and manager see everything", func(t *testing.T) {
        require.True(t, CanReadTask(RoleAdmin, 99, 1, nil))
        require.True(t, CanReadTask(RoleManager, 99, 1, nil))
    })

    t.Run("member sees own creation", func(t *testing.T) {
        require.True(t, CanReadTask(RoleMember, 1, 1, nil))
    })

    t.Run("member sees assigned task", func(t *testing.T) {
        require.True(t, CanReadTask(RoleMember, 11, 1, assignees))
    })

    t.Run("member blind to unrelated task", func(t *testing.T) {
        require.False(t, CanReadTask(RoleMember, 42, 1, assignees))
    })
}

func TestCanUpdateTask(t *testing.T) {
    t.Run("member updates assigned task", func(t *testing.T) {
        require.NoError(t, CanUpdateTask(RoleMember, 10, 1, []uint64{10}))
    })

    t.Run("member denied on unrelated task", func(t *testing.T) {
        err := CanUpdateTask(RoleMember, 42, 1, []uint64{10})
        require.ErrorIs(t, err, ErrForbidden)
    })
}

func TestCanLogTime(t *testing.T) {
    t.Run("assignee logs time", func(t *testing.T) {
        require.NoError(t, CanLogTime(RoleMember, 10, []uint64{10, 11}))
    })

    t.Run("creator without assignment denied", func(t *testing.T) {
        err := CanLogTime(RoleMember, 5, []uint64{10})
        require.ErrorIs(t, err, ErrForbidden)
    })

    t.Run("manager exempt from assignment rule", func(t *testing.T) {
        require.NoError(t, CanLogTime(RoleManager, 5, nil))
    })
}

func TestCanModifyOwn(t *testing.T) {
    require.NoError(t, CanModifyOwn(RoleMember, 3, 3))
    require.NoError(t, CanModifyOwn(RoleAdmin, 1, 3))
    require.ErrorIs(t, CanModifyOwn(RoleMember, 4, 3), ErrForbidden)
    require.ErrorIs(t, CanModifyOwn(RoleManager, 4, 3), ErrForbidden)
}

func TestCanAssign(t *testing.T) {
    t.Run("admin assigns anyone", func(t *testing.T) {
        require.NoError(t, CanAssign(RoleAdmin, []Role{RoleAdmin, RoleManager, RoleMember}))
    })

    t.Run("manager assigns members and managers", func(t *testing.T) {
        require.NoError(t, CanAssign(RoleManager, []Role{RoleMember, RoleManager}))
    })

    t.Run("manager batch containing an admin is rejected whole", func(t *testing.T) {
        err := CanAssign(RoleManager, []Role{RoleMember, RoleAdmin, RoleMember})
        require.ErrorIs(t, err, ErrForbiddenAssignment)
    })

    t.Run("member cannot assign at all", func(t *testing.T) {
        err := CanAssign(RoleMember, []Role{RoleMember})
        require.ErrorIs(t, err, ErrForbidden)
    })

    t.Run("empty batch clears assignees", func(t *testing.T) {
        require.NoError(t, CanAssign(RoleManager, nil))
    })
}
