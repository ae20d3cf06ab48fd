package plugin

import "sort"

// DependencyGraph records, per plugin name, its declared dependencies
// (outgoing edges) and the plugins that depend on it (incoming edges). Edge
// targets may name plugins that are not registered; the registry treats those
// as missing dependencies.
type DependencyGraph struct {
	nodes    map[string]struct{}
	outgoing map[string]map[string]struct{}
	incoming map[string]map[string]struct{}
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[string]struct{}),
		outgoing: make(map[string]map[string]struct{}),
		incoming: make(map[string]map[string]struct{}),
	}
}

// AddNode ensures the plugin exists within the graph.
func (g *DependencyGraph) AddNode(name string) {
	if _, exists := g.nodes[name]; exists {
		return
	}
	g.nodes[name] = struct{}{}
	g.outgoing[name] = make(map[string]struct{})
	g.incoming[name] = make(map[string]struct{})
}

// AddEdge records that dependent requires dependency. Both endpoints are
// added to the graph if absent.
func (g *DependencyGraph) AddEdge(dependent, dependency string) {
	g.AddNode(dependent)
	g.AddNode(dependency)

	g.outgoing[dependent][dependency] = struct{}{}
	g.incoming[dependency][dependent] = struct{}{}
}

// RemoveEdge deletes a single dependency edge, leaving both nodes in place.
func (g *DependencyGraph) RemoveEdge(dependent, dependency string) {
	if out, ok := g.outgoing[dependent]; ok {
		delete(out, dependency)
	}
	if in, ok := g.incoming[dependency]; ok {
		delete(in, dependent)
	}
}

// RemoveNode deletes the node and every edge touching it.
func (g *DependencyGraph) RemoveNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		return
	}

	for dependency := range g.outgoing[name] {
		delete(g.incoming[dependency], name)
	}
	for dependent := range g.incoming[name] {
		delete(g.outgoing[dependent], name)
	}

	delete(g.nodes, name)
	delete(g.outgoing, name)
	delete(g.incoming, name)
}

// Dependencies returns the sorted dependency names of a node.
func (g *DependencyGraph) Dependencies(node string) []string {
	return sortedKeys(g.outgoing[node])
}

// Dependents returns the sorted names of nodes that rely on the supplied node.
func (g *DependencyGraph) Dependents(node string) []string {
	return sortedKeys(g.incoming[node])
}

// HasNode reports if the node exists in the graph.
func (g *DependencyGraph) HasNode(node string) bool {
	if g == nil {
		return false
	}
	_, ok := g.nodes[node]
	return ok
}

// DependencyOrder returns every node in dependency order: a node's
// dependencies appear before the node itself. The traversal is a depth-first
// post-order with explicit visiting (gray) versus visited (black) marking; a
// revisited gray node means a cycle and yields ErrCircularDependency instead
// of unbounded recursion.
func (g *DependencyGraph) DependencyOrder() ([]string, error) {
	const (
		white = iota // unvisited
		gray         // on the active path
		black        // fully explored
	)

	state := make(map[string]int, len(g.nodes))
	path := []string{}
	order := make([]string, 0, len(g.nodes))

	var cycle []string
	var visit func(node string) bool

	visit = func(node string) bool {
		switch state[node] {
		case black:
			return false
		case gray:
			// Extract the cycle from the active path.
			idx := len(path) - 1
			for idx >= 0 && path[idx] != node {
				idx--
			}
			if idx >= 0 {
				cycle = append([]string{}, path[idx:]...)
			} else {
				cycle = []string{node}
			}
			return true
		}

		state[node] = gray
		path = append(path, node)

		for _, dependency := range g.Dependencies(node) {
			if visit(dependency) {
				return true
			}
		}

		path = path[:len(path)-1]
		state[node] = black
		order = append(order, node)
		return false
	}

	// Evaluate roots in deterministic order for consistent results.
	for _, node := range g.sortedNodes() {
		if state[node] == white {
			if visit(node) {
				return nil, ErrCircularDependency{Cycle: cycle}
			}
		}
	}

	return order, nil
}

func (g *DependencyGraph) sortedNodes() []string {
	return sortedKeys(g.nodes)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
