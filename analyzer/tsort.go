package analyzer

import "log/slog"

// topologicalSort performs a topological sort on items based on their
// dependencies using depth-first search (DFS). It returns the sorted items
// in dependency order: each item precedes every item that depends on it.
//
// Unlike a strict topological sort, this tolerates cycles:
// "produce a reverse topological order by depth-first search that
// tolerates cycles (cycles are emitted in arbitrary stable order and
// logged as a warning)." A cycle is broken by skipping the back-edge that
// would re-enter an in-progress node; the node is still emitted, just not
// necessarily before every table that references it.
func topologicalSort[T any](items []T, dependencies map[string][]string, getID func(T) string, logger *slog.Logger) []T {
	var sorted []T
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	itemMap := make(map[string]T)

	for _, item := range items {
		itemMap[getID(item)] = item
	}

	var visit func(string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		if visiting[id] {
			if logger != nil {
				logger.Warn("analyzer: circular foreign-key dependency detected, breaking cycle", "table", id)
			}
			return
		}
		visiting[id] = true
		for _, dep := range dependencies[id] {
			if _, exists := itemMap[dep]; exists {
				visit(dep)
			}
		}
		visiting[id] = false
		visited[id] = true
		if item, exists := itemMap[id]; exists {
			sorted = append(sorted, item)
		}
	}

	for _, item := range items {
		visit(getID(item))
	}

	return sorted
}
