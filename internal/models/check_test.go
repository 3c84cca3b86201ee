package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRecordSame(t *testing.T) {
	base := CheckRecord{Status: StatusNotOK, Reason: "disk full", Notes: "ticket 42"}

	same := base
	assert.True(t, base.Same(&same))

	changed := base
	changed.Status = StatusOK
	assert.False(t, base.Same(&changed))

	changed = base
	changed.Reason = "other"
	assert.False(t, base.Same(&changed))

	changed = base
	changed.Notes = ""
	assert.False(t, base.Same(&changed))

	// Submitter and timestamp do not participate.
	changed = base
	changed.SubmittedBy = "someone else"
	assert.True(t, base.Same(&changed))
}

func TestUserPassword(t *testing.T) {
	var u User
	assert.NoError(t, u.SetPassword("hunter2hunter2"))
	assert.NotEqual(t, "hunter2hunter2", u.Password)
	assert.True(t, u.CheckPassword("hunter2hunter2"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestHasPermission(t *testing.T) {
	admin := User{Role: RoleAdmin}
	user := User{Role: RoleUser}
	viewer := User{Role: RoleViewer}

	assert.True(t, admin.HasPermission("clear_ledgers"))
	assert.False(t, user.HasPermission("clear_ledgers"))
	assert.True(t, user.HasPermission("view_reports"))
	assert.True(t, viewer.HasPermission("view_ledgers"))
	assert.False(t, viewer.HasPermission("clear_ledgers"))
}
