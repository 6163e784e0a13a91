package categories

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// Assemble groups a flat category list into a forest. Records whose parent is
// absent from the input are treated as roots. Input order is preserved among
// siblings and every record appears exactly once.
func Assemble(records []models.Category) []*CategoryDTO {
	nodes := make(map[uuid.UUID]*CategoryDTO, len(records))
	ordered := make([]*CategoryDTO, 0, len(records))
	for i := range records {
		node := NewCategoryDTO(&records[i])
		node.Children = []*CategoryDTO{}
		nodes[records[i].ID] = node
		ordered = append(ordered, node)
	}

	broken := cycleBreaks(records)
	roots := make([]*CategoryDTO, 0)
	for i, node := range ordered {
		parentID := records[i].ParentID
		if parentID != nil && !broken[records[i].ID] {
			if parent, ok := nodes[*parentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// cycleBreaks picks, for every parent cycle in records, the node whose
// parent link is ignored so the cycle surfaces as a root instead of
// vanishing from the forest.
func cycleBreaks(records []models.Category) map[uuid.UUID]bool {
	parents := make(map[uuid.UUID]uuid.UUID, len(records))
	for _, c := range records {
		if c.ParentID != nil && *c.ParentID != c.ID {
			parents[c.ID] = *c.ParentID
		}
	}

	const (
		walking = 1
		settled = 2
	)
	state := make(map[uuid.UUID]int, len(records))
	broken := map[uuid.UUID]bool{}
	for _, c := range records {
		var path []uuid.UUID
		for cur := c.ID; ; {
			if state[cur] == walking {
				broken[cur] = true
				break
			}
			if state[cur] == settled {
				break
			}
			state[cur] = walking
			path = append(path, cur)
			next, ok := parents[cur]
			if !ok {
				break
			}
			cur = next
		}
		for _, id := range path {
			state[id] = settled
		}
	}
	return broken
}

// relevel plans moving id under parentID (nil or uuid.Nil for a root) and
// returns the new level of id and of every descendant. The move is refused
// when parentID is id itself or sits inside its subtree, or when any node
// would end up below MaxLevel. A parent missing from records counts as no
// parent, as on create.
func relevel(records []models.Category, id uuid.UUID, parentID *uuid.UUID) (map[uuid.UUID]int, error) {
	byID := make(map[uuid.UUID]*models.Category, len(records))
	children := make(map[uuid.UUID][]uuid.UUID)
	for i := range records {
		c := &records[i]
		byID[c.ID] = c
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	base := 1
	if parentID != nil && *parentID != uuid.Nil {
		seen := map[uuid.UUID]bool{}
		for cur := parentID; cur != nil && !seen[*cur]; {
			if *cur == id {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "a category cannot be moved under itself or one of its subcategories").
					WithDetails(map[string]any{"parentId": *parentID})
			}
			seen[*cur] = true
			node, ok := byID[*cur]
			if !ok {
				break
			}
			cur = node.ParentID
		}
		if parent, ok := byID[*parentID]; ok {
			base = parent.Level + 1
		}
	}

	levels := map[uuid.UUID]int{id: base}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if levels[cur] > MaxLevel {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "categories cannot be nested deeper than three levels").
				WithDetails(map[string]any{"categoryId": cur, "level": levels[cur]})
		}
		for _, child := range children[cur] {
			if _, done := levels[child]; done {
				continue
			}
			levels[child] = levels[cur] + 1
			queue = append(queue, child)
		}
	}
	return levels, nil
}
