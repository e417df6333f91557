package roster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-council/council-client/internal/model"
)

func members(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("model-%d", i)
	}
	return ids
}

func TestConfirmCouncilSizeBounds(t *testing.T) {
	for size := 3; size <= 10; size++ {
		sel := Selection{Council: members(size), Chairman: "chair"}
		err := sel.Confirm()
		if size >= MinCouncilSize && size <= MaxCouncilSize {
			assert.NoError(t, err, "size %d", size)
		} else {
			assert.Error(t, err, "size %d", size)
		}
	}
}

func TestConfirmRejectsDuplicates(t *testing.T) {
	sel := Selection{
		Council:  []string{"a", "b", "c", "d", "b"},
		Chairman: "chair",
	}
	var verr *ValidationError
	require.ErrorAs(t, sel.Confirm(), &verr)
	assert.Equal(t, "council", verr.Field)
}

func TestConfirmRequiresChairman(t *testing.T) {
	sel := Selection{Council: members(5)}
	var verr *ValidationError
	require.ErrorAs(t, sel.Confirm(), &verr)
	assert.Equal(t, "chairman", verr.Field)
}

func TestChairmanMayAlsoSitOnCouncil(t *testing.T) {
	sel := Selection{Council: members(5), Chairman: "model-0"}
	assert.NoError(t, sel.Confirm())
}

func TestToggleCouncilAddRemove(t *testing.T) {
	var sel Selection
	sel.ToggleCouncil("a")
	sel.ToggleCouncil("b")
	sel.ToggleCouncil("c")
	assert.Equal(t, []string{"a", "b", "c"}, sel.Council)
	assert.True(t, sel.HasCouncil("b"))

	// Removal preserves the order of the rest.
	sel.ToggleCouncil("b")
	assert.Equal(t, []string{"a", "c"}, sel.Council)
	assert.False(t, sel.HasCouncil("b"))
}

func TestTogglePastCapIsSilentNoOp(t *testing.T) {
	sel := Selection{Council: members(MaxCouncilSize)}
	sel.ToggleCouncil("one-too-many")

	assert.Len(t, sel.Council, MaxCouncilSize)
	assert.False(t, sel.HasCouncil("one-too-many"))

	// Removing at the cap still works.
	sel.ToggleCouncil("model-0")
	assert.Len(t, sel.Council, MaxCouncilSize-1)
}

func TestMetadataCopiesCouncil(t *testing.T) {
	sel := Selection{Council: members(5), Chairman: "chair"}
	meta := sel.Metadata()

	require.Equal(t, sel.Council, meta.CouncilModels)
	assert.Equal(t, "chair", meta.ChairmanModel)

	meta.CouncilModels[0] = "mutated"
	assert.Equal(t, "model-0", sel.Council[0])
}

func TestDefaultSelection(t *testing.T) {
	registry := []model.ModelInfo{
		{ID: "chair-only", Type: model.TypeChairman},
		{ID: "c1", Type: model.TypeCouncil},
		{ID: "c2", Type: model.TypeCouncil},
		{ID: "dual", Type: model.TypeBoth},
		{ID: "c3", Type: model.TypeCouncil},
		{ID: "c4", Type: model.TypeCouncil},
		{ID: "c5", Type: model.TypeCouncil},
		{ID: "c6", Type: model.TypeCouncil},
	}

	sel := Default(registry)
	assert.Equal(t, []string{"c1", "c2", "dual", "c3", "c4"}, sel.Council)
	assert.Equal(t, "chair-only", sel.Chairman)
	assert.NoError(t, sel.Confirm())
}

func TestDefaultSelectionSparseRegistry(t *testing.T) {
	sel := Default([]model.ModelInfo{
		{ID: "c1", Type: model.TypeCouncil},
		{ID: "c2", Type: model.TypeCouncil},
	})

	assert.Equal(t, []string{"c1", "c2"}, sel.Council)
	assert.Empty(t, sel.Chairman)
	assert.Error(t, sel.Confirm())
}
