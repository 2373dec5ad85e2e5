package core

import (
	"context"

	"mycocore/pkg/domain"
)

// AttachLineage makes parentID the parent of childID. Attaching fails with
// CycleDetectedError when the edge would make the child its own ancestor, and
// sets the child's generation to parent.generation + 1.
func (s *Service) AttachLineage(ctx context.Context, childID, parentID string) (Culture, Result, error) {
	var updated Culture
	res, err := s.instrument(ctx, "attach_lineage", EntityCulture, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = attachLineage(tx, childID, parentID)
			return err
		})
		return childID, res, err
	})
	return updated, res, err
}

func attachLineage(tx Transaction, childID, parentID string) (Culture, error) {
	view := tx.Snapshot()
	if childID == parentID {
		return Culture{}, domain.CycleDetectedError{ChildID: childID, ParentID: parentID}
	}
	if _, ok := view.FindCulture(childID); !ok {
		return Culture{}, domain.NotFoundError{Entity: EntityCulture, ID: childID}
	}
	parent, ok := view.FindCulture(parentID)
	if !ok {
		return Culture{}, domain.NotFoundError{Entity: EntityCulture, ID: parentID}
	}
	// Walk the parent's ancestors; if the child appears the edge closes a cycle.
	for _, ancestor := range ancestorsOf(view, parentID) {
		if ancestor.ID == childID {
			return Culture{}, domain.CycleDetectedError{ChildID: childID, ParentID: parentID}
		}
	}
	return tx.UpdateCulture(childID, func(c *Culture) error {
		pid := parentID
		c.ParentID = &pid
		c.Generation = parent.Generation + 1
		return nil
	})
}

// DetachLineage clears the child's parent pointer and resets its generation
// to zero. Stored generations of its descendants are deliberately left as
// they were; the graph keeps snapshot semantics rather than cascading.
func (s *Service) DetachLineage(ctx context.Context, childID string) (Culture, Result, error) {
	var updated Culture
	res, err := s.instrument(ctx, "detach_lineage", EntityCulture, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateCulture(childID, func(c *Culture) error {
				c.ParentID = nil
				c.Generation = 0
				return nil
			})
			return err
		})
		return childID, res, err
	})
	return updated, res, err
}

// Ancestors returns the culture's ancestor chain ordered root first. The walk
// carries a visited guard so it terminates even on malformed data.
func (s *Service) Ancestors(ctx context.Context, id string) ([]Culture, error) {
	var chain []Culture
	err := s.store.View(ctx, func(view TransactionView) error {
		if _, ok := view.FindCulture(id); !ok {
			return domain.NotFoundError{Entity: EntityCulture, ID: id}
		}
		chain = ancestorsOf(view, id)
		return nil
	})
	return chain, err
}

// ancestorsOf walks parent pointers from id upward and returns the chain
// root first, excluding id itself. Cycles in stored data end the walk instead
// of hanging it.
func ancestorsOf(view TransactionView, id string) []Culture {
	visited := map[string]struct{}{id: {}}
	var chain []Culture
	current, ok := view.FindCulture(id)
	for ok && current.ParentID != nil {
		parentID := *current.ParentID
		if _, seen := visited[parentID]; seen {
			break
		}
		visited[parentID] = struct{}{}
		parent, found := view.FindCulture(parentID)
		if !found {
			break
		}
		chain = append(chain, parent)
		current = parent
	}
	// reverse: collected child-to-root, callers expect root first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Descendants returns every culture reachable through child edges from id.
// Order is unspecified.
func (s *Service) Descendants(ctx context.Context, id string) ([]Culture, error) {
	var out []Culture
	err := s.store.View(ctx, func(view TransactionView) error {
		if _, ok := view.FindCulture(id); !ok {
			return domain.NotFoundError{Entity: EntityCulture, ID: id}
		}
		children := map[string][]Culture{}
		for _, c := range view.ListCultures() {
			if c.ParentID == nil {
				continue
			}
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
		visited := map[string]struct{}{id: {}}
		queue := []string{id}
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			for _, child := range children[next] {
				if _, seen := visited[child.ID]; seen {
					continue
				}
				visited[child.ID] = struct{}{}
				out = append(out, child)
				queue = append(queue, child.ID)
			}
		}
		return nil
	})
	return out, err
}
