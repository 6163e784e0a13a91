package categories

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func category(name string, parent *uuid.UUID) models.Category {
	return models.Category{ID: uuid.New(), Name: name, ParentID: parent}
}

func countNodes(nodes []*CategoryDTO) int {
	total := 0
	for _, node := range nodes {
		total += 1 + countNodes(node.Children)
	}
	return total
}

func TestAssembleBuildsNestedForest(t *testing.T) {
	root := category("Fashion", nil)
	men := category("Men", &root.ID)
	shirts := category("Shirts", &men.ID)
	women := category("Women", &root.ID)
	other := category("Books", nil)

	tree := Assemble([]models.Category{root, men, shirts, women, other})

	require.Len(t, tree, 2)
	assert.Equal(t, "Fashion", tree[0].Name)
	assert.Equal(t, "Books", tree[1].Name)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "Men", tree[0].Children[0].Name)
	assert.Equal(t, "Women", tree[0].Children[1].Name)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "Shirts", tree[0].Children[0].Children[0].Name)
	assert.Equal(t, 5, countNodes(tree))
}

func TestAssembleHandlesChildBeforeParent(t *testing.T) {
	parent := category("Parent", nil)
	child := category("Child", &parent.ID)

	tree := Assemble([]models.Category{child, parent})

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, child.ID, tree[0].Children[0].ID)
}

func TestAssembleTreatsOrphansAsRoots(t *testing.T) {
	missing := uuid.New()
	orphan := category("Orphan", &missing)
	root := category("Root", nil)

	tree := Assemble([]models.Category{orphan, root})

	require.Len(t, tree, 2)
	assert.Equal(t, "Orphan", tree[0].Name)
	assert.Empty(t, tree[0].Children)
	assert.NotNil(t, tree[0].Children)
}

func TestAssembleSelfParentIsRoot(t *testing.T) {
	self := category("Loop", nil)
	self.ParentID = &self.ID

	tree := Assemble([]models.Category{self})
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Children)
}

func TestAssembleEmptyInput(t *testing.T) {
	tree := Assemble(nil)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestAssembleKeepsNodesCaughtInAParentCycle(t *testing.T) {
	a := category("A", nil)
	b := category("B", &a.ID)
	a.ParentID = &b.ID
	c := category("C", &a.ID)
	loner := category("Loner", nil)

	tree := Assemble([]models.Category{a, b, c, loner})

	require.Len(t, tree, 2)
	assert.Equal(t, a.ID, tree[0].ID)
	assert.Equal(t, loner.ID, tree[1].ID)
	assert.Equal(t, 4, countNodes(tree))
}

func TestRelevel(t *testing.T) {
	a := category("A", nil)
	a.Level = 1
	b := category("B", &a.ID)
	b.Level = 2
	c := category("C", &b.ID)
	c.Level = 3
	d := category("D", nil)
	d.Level = 1
	records := []models.Category{a, b, c, d}

	levels, err := relevel(records, b.ID, &d.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{b.ID: 2, c.ID: 3}, levels)

	levels, err = relevel(records, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{b.ID: 1, c.ID: 2}, levels)

	missing := uuid.New()
	levels, err = relevel(records, c.ID, &missing)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{c.ID: 1}, levels)

	_, err = relevel(records, a.ID, &c.ID)
	assert.ErrorContains(t, err, "subcategories")
	_, err = relevel(records, a.ID, &a.ID)
	assert.ErrorContains(t, err, "subcategories")

	_, err = relevel(records, a.ID, &d.ID)
	assert.ErrorContains(t, err, "deeper than three levels")
}
