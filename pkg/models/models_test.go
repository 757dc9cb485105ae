package models

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requiredTag = "required"

func TestActionDefinition_Validation_Valid(t *testing.T) {
	action := ActionDefinition{
		ID:       "clean",
		Label:    "Clean",
		Category: CategoryProcessing,
	}

	validate := validator.New()
	assert.NoError(t, validate.Struct(action))
}

func TestActionDefinition_Validation_MissingFields(t *testing.T) {
	testCases := []struct {
		name          string
		action        ActionDefinition
		expectedField string
		expectedTag   string
	}{
		{
			name:          "missing id",
			action:        ActionDefinition{Label: "Clean", Category: CategoryProcessing},
			expectedField: "ID",
			expectedTag:   requiredTag,
		},
		{
			name:          "missing label",
			action:        ActionDefinition{ID: "clean", Category: CategoryProcessing},
			expectedField: "Label",
			expectedTag:   requiredTag,
		},
		{
			name:          "unknown category",
			action:        ActionDefinition{ID: "clean", Label: "Clean", Category: "misc"},
			expectedField: "Category",
			expectedTag:   "oneof",
		},
	}

	validate := validator.New()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate.Struct(tc.action)
			require.Error(t, err)

			var validationErrors validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrors))
			require.Len(t, validationErrors, 1)
			assert.Equal(t, tc.expectedField, validationErrors[0].Field())
			assert.Equal(t, tc.expectedTag, validationErrors[0].Tag())
		})
	}
}

func TestCategory_Valid(t *testing.T) {
	for _, category := range Categories() {
		assert.True(t, category.Valid(), category)
	}

	assert.False(t, Category("").Valid())
	assert.False(t, Category("Processing").Valid())
}

func TestNodeField_Valid(t *testing.T) {
	assert.True(t, FieldAction.Valid())
	assert.True(t, FieldIsOutput.Valid())
	assert.True(t, FieldCustomPrompt.Valid())
	assert.False(t, NodeField("uuid").Valid())
	assert.False(t, NodeField("children").Valid())
}

func TestWorkflowNode_Clone(t *testing.T) {
	node := &WorkflowNode{
		UUID:         "n1",
		Action:       ActionDefinition{ID: "clean", Label: "Clean", Category: CategoryProcessing},
		CustomPrompt: "keep headings",
		Children:     []string{"n2"},
	}

	clone := node.Clone()
	clone.Children[0] = "n3"
	clone.Children = append(clone.Children, "n4")
	clone.IsOutput = true

	assert.Equal(t, []string{"n2"}, node.Children)
	assert.False(t, node.IsOutput)
	assert.True(t, clone.HasCustomPrompt())
}

func TestWorkflowNode_HasCustomPrompt(t *testing.T) {
	assert.False(t, (&WorkflowNode{}).HasCustomPrompt())
	assert.True(t, (&WorkflowNode{CustomPrompt: "x"}).HasCustomPrompt())
}

func TestForest_Empty(t *testing.T) {
	forest := NewForest()

	assert.True(t, forest.IsEmpty())
	assert.Equal(t, 0, forest.Len())
	assert.NotNil(t, forest.Nodes)
	assert.NotNil(t, forest.Roots)
}

func TestNewWorkflowDocument(t *testing.T) {
	doc := NewWorkflowDocument("Blog post", "Clean then summarise")

	assert.Empty(t, doc.ID)
	assert.Equal(t, "Blog post", doc.Name)
	assert.True(t, doc.Forest.IsEmpty())
	assert.True(t, doc.CreatedAt.IsZero())
}

func TestWorkflowDocument_Validation_NameTooLong(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	doc := NewWorkflowDocument(string(long), "")

	validate := validator.New()
	err := validate.Struct(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
}
