package collab_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorpad/vectorpad/internal/collab"
	"github.com/vectorpad/vectorpad/internal/scene"
)

func newSessionState(t *testing.T) *collab.SessionState {
	t.Helper()
	store := scene.NewSampleStore()
	doc := scene.Document{Name: "room", Width: 1280, Height: 720}
	return collab.NewSessionState(doc, store)
}

func hideOp(elementID string) scene.Operation {
	visible := false
	return scene.Operation{
		Type:      scene.OpElementVisibility,
		ElementID: elementID,
		Visible:   &visible,
	}
}

func TestSessionState_ApplyAssignsIncreasingSeq(t *testing.T) {
	ss := newSessionState(t)
	require.Zero(t, ss.ServerSeq())

	seq1, err := ss.Apply(hideOp("elem_sample_square"))
	require.NoError(t, err)
	seq2, err := ss.Apply(hideOp("elem_sample_wave"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), seq1)
	assert.Equal(t, int64(2), seq2)
	assert.Equal(t, int64(2), ss.ServerSeq())
}

func TestSessionState_RejectedOpLeavesSeqUntouched(t *testing.T) {
	ss := newSessionState(t)

	_, err := ss.Apply(hideOp("elem_sample_square"))
	require.NoError(t, err)

	_, err = ss.Apply(hideOp("no_such_element"))
	assert.Error(t, err)
	assert.Equal(t, int64(1), ss.ServerSeq())
}

func TestSessionState_SceneJSONReflectsAppliedOps(t *testing.T) {
	ss := newSessionState(t)
	_, err := ss.Apply(hideOp("elem_sample_square"))
	require.NoError(t, err)

	data, seq, err := ss.SceneJSON()
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	var elements []*scene.Element
	require.NoError(t, json.Unmarshal(data, &elements))
	for _, el := range elements {
		if el.ID == "elem_sample_square" {
			assert.False(t, el.Visible)
			return
		}
	}
	t.Fatal("square not found in scene sync payload")
}

func TestSessionState_FlushOnlyWhenDirty(t *testing.T) {
	ss := newSessionState(t)

	_, _, ok := ss.Flush()
	assert.False(t, ok, "a fresh session has nothing to save")

	_, err := ss.Apply(hideOp("elem_sample_square"))
	require.NoError(t, err)

	data, seq, ok := ss.Flush()
	require.True(t, ok)
	assert.NotEmpty(t, data)
	assert.Equal(t, int64(1), seq)

	_, _, ok = ss.Flush()
	assert.False(t, ok, "flush marks the state clean")
}
