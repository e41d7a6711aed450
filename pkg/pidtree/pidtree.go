// Package pidtree filters a flat system-wide process table down to the
// descendants of a single process. It is a pure function over a
// pid→ppid map and performs no OS calls of its own.
package pidtree

import "sort"

// Edge is a (pid, ppid) pair from the process table.
type Edge struct {
	Pid  int `json:"pid"`
	Ppid int `json:"ppid"`
}

// Descendants returns the edges of every process reachable from root by
// following parent links. The root itself is not included. Results are
// sorted by pid so repeated calls over the same table are stable.
//
// The map is a snapshot of a table the OS mutates freely: since pids
// are recycled, a parent chain can pass through an unrelated process
// that reused an exited ancestor's pid. Callers get whatever the table
// says; this function does not try to detect reuse.
func Descendants(root int, parents map[int]int) []Edge {
	edges := make([]Edge, 0)
	for pid, ppid := range parents {
		if pid == root {
			continue
		}
		if descendsFrom(pid, root, parents) {
			edges = append(edges, Edge{Pid: pid, Ppid: ppid})
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Pid < edges[j].Pid })
	return edges
}

// descendsFrom walks pid's parent chain upward looking for root,
// stopping on unknown parents or cycles.
func descendsFrom(pid, root int, parents map[int]int) bool {
	seen := map[int]bool{pid: true}
	for {
		ppid, ok := parents[pid]
		if !ok {
			return false
		}
		if ppid == root {
			return true
		}
		if seen[ppid] {
			return false
		}
		seen[ppid] = true
		pid = ppid
	}
}
