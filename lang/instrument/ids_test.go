package instrument

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierTableMintsStableNames(t *testing.T) {
	ids := NewIdentifierTable("")

	assert.Equal(t, "livepack_tracker", ids.AllocTracker().Name)
	assert.Same(t, ids.AllocTracker(), ids.AllocTracker())

	assert.Equal(t, "livepack_scopeId_3", ids.AllocScopeID(3).Name)
	assert.Same(t, ids.AllocScopeID(3), ids.AllocScopeID(3))
	assert.NotSame(t, ids.AllocScopeID(3), ids.AllocScopeID(4))

	assert.Equal(t, "livepack_temp_1", ids.AllocTemp().Name)
	assert.Equal(t, "livepack_temp_2", ids.AllocTemp().Name)

	assert.Equal(t, "livepack_getFnInfo_7", ids.AllocFnInfo(7).Name)
	assert.Equal(t, "livepack_eval", ids.AllocEval().Name)
	assert.Equal(t, "livepack_preval", ids.AllocPreval().Name)
	assert.Equal(t, "livepack_getEval", ids.AllocGetEval().Name)
	assert.Equal(t, "livepack_getScopeId", ids.AllocGetScopeID().Name)
}

func TestIdentifierTableCustomPrefix(t *testing.T) {
	ids := NewIdentifierTable("trk")
	assert.Equal(t, "trk_tracker", ids.AllocTracker().Name)
}

func TestNoteUserNameEscalatesCounter(t *testing.T) {
	ids := NewIdentifierTable("")

	ids.NoteUserName("x")
	ids.NoteUserName("livepackish") // no underscore separator: not a collision shape
	assert.Equal(t, 0, ids.counter)

	ids.NoteUserName("livepack_anything")
	assert.Equal(t, 1, ids.counter)

	ids.NoteUserName("livepack4_tracker")
	assert.Equal(t, 5, ids.counter)

	ids.NoteUserName("livepack2_x") // lower than the current counter: no regression
	assert.Equal(t, 5, ids.counter)
}

func TestFinalizeRenamesEveryReference(t *testing.T) {
	ids := NewIdentifierTable("")
	slot := ids.AllocScopeID(0)
	ref1 := ids.Ident(slot, token.NoPos)
	ref2 := ids.Ident(slot, token.NoPos)
	require.True(t, ref1.Internal)

	ids.NoteUserName("livepack_scopeId_0")
	ids.Finalize()

	assert.Equal(t, "livepack1_scopeId_0", slot.Name)
	assert.Equal(t, "livepack1_scopeId_0", ref1.Name)
	assert.Equal(t, "livepack1_scopeId_0", ref2.Name)
}

func TestFinalizeNoOpWithoutCollision(t *testing.T) {
	ids := NewIdentifierTable("")
	tracker := ids.AllocTracker()
	ids.NoteUserName("count")
	ids.Finalize()
	assert.Equal(t, "livepack_tracker", tracker.Name)
}
