package readiness

import "go.viam.com/rotera/project"

// lineGraph is a small adjacency-list graph over world points connected by
// lines, used by the ambiguous-depth BFS (§4.11). Grounded on the
// adjacency-list-plus-visited-set BFS shape common to graph libraries in
// the retrieval pack (Neighbors(id) + a visited set), scoped down to the
// one BFS this package needs rather than a general graph dependency.
type lineGraph struct {
	adj map[project.WorldPointID][]project.WorldPointID
}

func buildLineGraph(proj *project.Project) *lineGraph {
	g := &lineGraph{adj: map[project.WorldPointID][]project.WorldPointID{}}
	for _, wp := range proj.WorldPoints() {
		g.adj[wp.ID] = nil
	}
	for _, l := range proj.Lines() {
		a, b := l.Endpoints[0], l.Endpoints[1]
		g.adj[a] = append(g.adj[a], b)
		g.adj[b] = append(g.adj[b], a)
	}
	return g
}

func (g *lineGraph) Neighbors(id project.WorldPointID) []project.WorldPointID {
	return g.adj[id]
}

// reachableFrom runs a BFS from every point in anchors, returning the set
// of world points reachable through the line graph from any anchor.
func (g *lineGraph) reachableFrom(anchors []project.WorldPointID) map[project.WorldPointID]bool {
	visited := map[project.WorldPointID]bool{}
	queue := append([]project.WorldPointID(nil), anchors...)
	for _, a := range anchors {
		visited[a] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Neighbors(cur) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}
