package tree

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func action(id string) models.ActionDefinition {
	return models.ActionDefinition{
		ID:       id,
		Label:    id,
		Category: models.CategoryProcessing,
	}
}

// buildForest creates root -> (a -> (a1, a2), b -> b1) and returns the uuids by name.
func buildForest(t *testing.T) (models.Forest, map[string]string) {
	t.Helper()

	f := models.NewForest()
	ids := map[string]string{}

	root, err := InsertRoot(&f, action("root"))
	require.NoError(t, err)

	ids["root"] = root.UUID

	for _, entry := range []struct{ name, parent string }{
		{"a", "root"},
		{"b", "root"},
		{"a1", "a"},
		{"a2", "a"},
		{"b1", "b"},
	} {
		node, err := InsertChild(&f, ids[entry.parent], action(entry.name))
		require.NoError(t, err)

		ids[entry.name] = node.UUID
	}

	return f, ids
}

func TestInsertRoot_EmptyForest(t *testing.T) {
	f := models.NewForest()

	node, err := InsertRoot(&f, action("clean"), WithOutput(true), WithCustomPrompt("be terse"))
	require.NoError(t, err)

	assert.NotEmpty(t, node.UUID)
	assert.Equal(t, []string{node.UUID}, f.Roots)
	assert.True(t, node.IsOutput)
	assert.Equal(t, "be terse", node.CustomPrompt)
	assert.Empty(t, node.Children)
}

func TestInsertRoot_RejectsSecondRoot(t *testing.T) {
	f := models.NewForest()

	_, err := InsertRoot(&f, action("clean"))
	require.NoError(t, err)

	before := Clone(&f)

	_, err = InsertRoot(&f, action("summary"))
	require.Error(t, err)
	assert.True(t, IsSelectionRequired(err))
	assert.True(t, IsStructuralError(err))
	assert.Equal(t, before, f)
}

func TestInsertChild_MissingParent(t *testing.T) {
	f, _ := buildForest(t)
	before := Clone(&f)

	_, err := InsertChild(&f, "missing", action("x"))
	require.Error(t, err)
	assert.True(t, IsNodeNotFound(err))
	assert.Equal(t, before, f)
}

func TestInsertChild_AppendsInOrder(t *testing.T) {
	f, ids := buildForest(t)

	parent, ok := FindNode(&f, ids["a"])
	require.True(t, ok)
	assert.Equal(t, []string{ids["a1"], ids["a2"]}, parent.Children)

	c, err := InsertChild(&f, ids["a"], action("a3"))
	require.NoError(t, err)

	parent, _ = FindNode(&f, ids["a"])
	assert.Equal(t, []string{ids["a1"], ids["a2"], c.UUID}, parent.Children)
}

func TestDeleteNode_RemovesSubtree(t *testing.T) {
	f, ids := buildForest(t)

	removed, err := DeleteNode(&f, ids["a"])
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ids["a"], ids["a1"], ids["a2"]}, removed)

	for _, name := range []string{"a", "a1", "a2"} {
		_, ok := FindNode(&f, ids[name])
		assert.False(t, ok, name)
	}

	root, _ := FindNode(&f, ids["root"])
	assert.Equal(t, []string{ids["b"]}, root.Children)
	assert.Equal(t, 3, f.Len())
	require.NoError(t, Validate(&f))
}

func TestDeleteNode_Root(t *testing.T) {
	f, ids := buildForest(t)

	_, err := DeleteNode(&f, ids["root"])
	require.NoError(t, err)

	assert.True(t, f.IsEmpty())
	assert.Zero(t, f.Len())
}

func TestDeleteNode_Missing(t *testing.T) {
	f, _ := buildForest(t)
	before := Clone(&f)

	_, err := DeleteNode(&f, "missing")
	require.Error(t, err)
	assert.True(t, IsNodeNotFound(err))
	assert.Equal(t, before, f)
}

func TestPathTo(t *testing.T) {
	f, ids := buildForest(t)

	path, ok := PathTo(&f, ids["a2"])
	require.True(t, ok)

	names := make([]string, 0, len(path))
	for _, n := range path {
		names = append(names, n.Action.ID)
	}

	assert.Equal(t, []string{"root", "a", "a2"}, names)

	path, ok = PathTo(&f, ids["root"])
	require.True(t, ok)
	assert.Len(t, path, 1)

	_, ok = PathTo(&f, "missing")
	assert.False(t, ok)
}

func TestUpdateNodeField(t *testing.T) {
	f, ids := buildForest(t)
	held := f.Nodes[ids["a1"]]

	require.NoError(t, UpdateNodeField(&f, ids["a1"], models.FieldIsOutput, true))
	require.NoError(t, UpdateNodeField(&f, ids["a1"], models.FieldCustomPrompt, "shorter"))
	require.NoError(t, UpdateNodeField(&f, ids["a1"], models.FieldAction, action("translate")))

	node, _ := FindNode(&f, ids["a1"])
	assert.True(t, node.IsOutput)
	assert.Equal(t, "shorter", node.CustomPrompt)
	assert.Equal(t, "translate", node.Action.ID)

	// Records handed out before the edit keep their values.
	assert.False(t, held.IsOutput)
	assert.Equal(t, "a1", held.Action.ID)
}

func TestUpdateNodeField_Errors(t *testing.T) {
	f, ids := buildForest(t)

	tests := []struct {
		name    string
		uuid    string
		field   models.NodeField
		value   any
		wantErr error
	}{
		{"missing node", "missing", models.FieldIsOutput, true, ErrNodeNotFound},
		{"unknown field", ids["a"], models.NodeField("children"), nil, ErrInvalidField},
		{"wrong type for is_output", ids["a"], models.FieldIsOutput, "yes", ErrInvalidValue},
		{"wrong type for action", ids["a"], models.FieldAction, "clean", ErrInvalidValue},
		{"wrong type for prompt", ids["a"], models.FieldCustomPrompt, 42, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UpdateNodeField(&f, tt.uuid, tt.field, tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWalk_PreOrder(t *testing.T) {
	f, _ := buildForest(t)

	var visited []string

	depths := map[string]int{}

	Walk(&f, func(n *models.WorkflowNode, depth int) bool {
		visited = append(visited, n.Action.ID)
		depths[n.Action.ID] = depth

		return true
	})

	assert.Equal(t, []string{"root", "a", "a1", "a2", "b", "b1"}, visited)
	assert.Equal(t, 2, depths["b1"])
}

func TestNestAndFlatten_RoundTrip(t *testing.T) {
	f, ids := buildForest(t)

	nested := Nest(&f)
	require.Len(t, nested, 1)
	assert.Equal(t, ids["root"], nested[0].UUID)
	require.Len(t, nested[0].Children, 2)
	assert.Equal(t, ids["a2"], nested[0].Children[0].Children[1].UUID)

	flat, err := Flatten(nested)
	require.NoError(t, err)
	assert.Equal(t, f, flat)
}

func TestFlatten_DuplicateUUID(t *testing.T) {
	roots := []*models.TreeNode{
		{UUID: "x", Action: action("a"), Children: []*models.TreeNode{{UUID: "x", Action: action("b")}}},
	}

	_, err := Flatten(roots)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateNode)
}

func TestValidate(t *testing.T) {
	node := func(id string, children ...string) *models.WorkflowNode {
		return &models.WorkflowNode{UUID: id, Action: action(id), Children: children}
	}

	tests := []struct {
		name    string
		forest  models.Forest
		wantErr error
	}{
		{
			name:   "valid",
			forest: models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": node("a", "b"), "b": node("b")}},
		},
		{
			name:    "missing child",
			forest:  models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": node("a", "b")}},
			wantErr: ErrNodeNotFound,
		},
		{
			name:    "shared child",
			forest:  models.Forest{Roots: []string{"a", "b"}, Nodes: map[string]*models.WorkflowNode{"a": node("a", "c"), "b": node("b", "c"), "c": node("c")}},
			wantErr: ErrSharedNode,
		},
		{
			name:    "cycle through root",
			forest:  models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": node("a", "b"), "b": node("b", "a")}},
			wantErr: ErrSharedNode,
		},
		{
			name:    "detached cycle",
			forest:  models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": node("a"), "b": node("b", "c"), "c": node("c", "b")}},
			wantErr: ErrOrphanNode,
		},
		{
			name:    "orphan",
			forest:  models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": node("a"), "b": node("b")}},
			wantErr: ErrOrphanNode,
		},
		{
			name:    "nil root record",
			forest:  models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": nil}},
			wantErr: ErrNodeNotFound,
		},
		{
			name:    "nil child record",
			forest:  models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": node("a", "b"), "b": nil}},
			wantErr: ErrNodeNotFound,
		},
		{
			name:    "nil unreferenced record",
			forest:  models.Forest{Roots: []string{"a"}, Nodes: map[string]*models.WorkflowNode{"a": node("a"), "x": nil}},
			wantErr: ErrNodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.forest)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNilNodeRecords(t *testing.T) {
	f := models.Forest{
		Roots: []string{"a"},
		Nodes: map[string]*models.WorkflowNode{
			"a": {UUID: "a", Action: action("a"), Children: []string{"x", "b"}},
			"b": {UUID: "b", Action: action("b"), Children: []string{}},
			"x": nil,
		},
	}

	var visited []string

	require.NotPanics(t, func() {
		Walk(&f, func(node *models.WorkflowNode, _ int) bool {
			visited = append(visited, node.UUID)

			return true
		})
	})
	assert.Equal(t, []string{"a", "b"}, visited)

	var nested []*models.TreeNode

	require.NotPanics(t, func() { nested = Nest(&f) })
	require.Len(t, nested, 1)
	require.Len(t, nested[0].Children, 1)
	assert.Equal(t, "b", nested[0].Children[0].UUID)

	require.NotPanics(t, func() {
		clone := Clone(&f)
		assert.Equal(t, 2, clone.Len())

		fresh := CloneWithFreshIDs(&f)
		assert.Equal(t, 2, fresh.Len())
	})

	_, ok := FindNode(&f, "x")
	assert.False(t, ok)

	_, err := DeleteNode(&f, "x")
	assert.True(t, IsNodeNotFound(err))

	_, err = InsertChild(&f, "x", action("c"))
	assert.True(t, IsNodeNotFound(err))

	assert.ErrorIs(t, Validate(&f), ErrNodeNotFound)
}

func TestCloneWithFreshIDs(t *testing.T) {
	f, ids := buildForest(t)

	clone := CloneWithFreshIDs(&f)
	require.NoError(t, Validate(&clone))
	assert.Equal(t, f.Len(), clone.Len())

	for _, id := range ids {
		_, ok := clone.Nodes[id]
		assert.False(t, ok)
	}

	assert.Equal(t, len(Nest(&f)[0].Children), len(Nest(&clone)[0].Children))
}

// randomForest grows a forest with n random insertions, returning every uuid created.
func randomForest(t *testing.T, rng *rand.Rand, n int) (models.Forest, []string) {
	t.Helper()

	f := models.NewForest()

	root, err := InsertRoot(&f, action("root"))
	require.NoError(t, err)

	created := []string{root.UUID}

	for i := 0; i < n; i++ {
		parent := created[rng.Intn(len(created))]

		node, err := InsertChild(&f, parent, action("step"))
		require.NoError(t, err)

		created = append(created, node.UUID)
	}

	return f, created
}

func TestProperty_UniqueUUIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		f, created := randomForest(t, rng, 50)

		seen := map[string]struct{}{}
		for _, id := range created {
			_, dup := seen[id]
			require.False(t, dup)

			seen[id] = struct{}{}
		}

		assert.Equal(t, len(created), f.Len())
		require.NoError(t, Validate(&f))
	}
}

func TestProperty_SubtreeDeletionComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for round := 0; round < 20; round++ {
		f, created := randomForest(t, rng, 40)
		target := created[rng.Intn(len(created))]
		subtree := Descendants(&f, target)

		_, err := DeleteNode(&f, target)
		require.NoError(t, err)

		for _, id := range subtree {
			_, ok := FindNode(&f, id)
			assert.False(t, ok)
		}

		require.NoError(t, Validate(&f))
	}
}

func TestProperty_LocalityOfMutation(t *testing.T) {
	f, ids := buildForest(t)

	snapshot := func() map[string]models.WorkflowNode {
		out := map[string]models.WorkflowNode{}
		for _, id := range Descendants(&f, ids["b"]) {
			out[id] = *f.Nodes[id]
		}

		return out
	}

	before := snapshot()

	_, err := InsertChild(&f, ids["a1"], action("deep"))
	require.NoError(t, err)
	_, err = DeleteNode(&f, ids["a2"])
	require.NoError(t, err)
	require.NoError(t, UpdateNodeField(&f, ids["a"], models.FieldIsOutput, true))

	assert.True(t, reflect.DeepEqual(before, snapshot()))
}

func TestProperty_PathCorrectness(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	f, created := randomForest(t, rng, 60)

	for _, id := range created {
		path, ok := PathTo(&f, id)
		require.True(t, ok)

		assert.Equal(t, id, path[len(path)-1].UUID)
		assert.Contains(t, f.Roots, path[0].UUID)

		for i := 1; i < len(path); i++ {
			assert.Contains(t, path[i-1].Children, path[i].UUID)
		}
	}
}
