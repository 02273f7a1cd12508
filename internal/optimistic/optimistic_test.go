package optimistic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/princekumarofficial/stories-viewer/internal/optimistic"
)

func TestApplyMutatesImmediately(t *testing.T) {
	state := []string{"a"}

	optimistic.Apply(
		func() []string { return append([]string(nil), state...) },
		func() { state = append(state, "b") },
		func(snap []string) { state = snap },
	)

	assert.Equal(t, []string{"a", "b"}, state)
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	state := []string{"a"}

	u := optimistic.Apply(
		func() []string { return append([]string(nil), state...) },
		func() { state = append(state, "b") },
		func(snap []string) { state = snap },
	)

	// Unrelated churn after the optimistic apply is also undone: the
	// snapshot covers the whole state, not the single mutation.
	state = append(state, "c")
	u.Rollback()

	assert.Equal(t, []string{"a"}, state)
}

func TestConfirmKeepsAppliedState(t *testing.T) {
	state := []string{"a"}

	u := optimistic.Apply(
		func() []string { return append([]string(nil), state...) },
		func() { state = append(state, "b") },
		func(snap []string) { state = snap },
	)

	u.Confirm()
	u.Rollback() // settled, must not restore

	assert.Equal(t, []string{"a", "b"}, state)
}

func TestRollbackIsOneShot(t *testing.T) {
	restores := 0
	u := optimistic.Apply(
		func() int { return 0 },
		func() {},
		func(int) { restores++ },
	)

	u.Rollback()
	u.Rollback()

	assert.Equal(t, 1, restores)
}
