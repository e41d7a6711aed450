package pidtree

import (
	"reflect"
	"testing"
)

func TestDescendants(t *testing.T) {
	// 100 is the root; 300 and 400 descend from it through 200.
	// 500/501 are an unrelated tree, 900 has an unknown parent.
	parents := map[int]int{
		100: 1,
		200: 100,
		300: 200,
		400: 200,
		500: 1,
		501: 500,
		900: 899,
	}

	tests := []struct {
		name string
		root int
		want []Edge
	}{
		{
			name: "direct and transitive children",
			root: 100,
			want: []Edge{{200, 100}, {300, 200}, {400, 200}},
		},
		{
			name: "leaf has no children",
			root: 300,
			want: []Edge{},
		},
		{
			name: "unrelated subtree only",
			root: 500,
			want: []Edge{{501, 500}},
		},
		{
			name: "unknown root",
			root: 12345,
			want: []Edge{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Descendants(tt.root, parents)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Descendants(%d) = %v, want %v", tt.root, got, tt.want)
			}
		})
	}
}

func TestDescendantsCycle(t *testing.T) {
	// A recycled pid can point a parent chain back at itself; the walk
	// must terminate and exclude the cycle.
	parents := map[int]int{
		10: 20,
		20: 10,
		30: 1,
	}
	got := Descendants(1, parents)
	want := []Edge{{30, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Descendants(1) = %v, want %v", got, want)
	}
}

func TestDescendantsEmptyTable(t *testing.T) {
	if got := Descendants(1, map[int]int{}); len(got) != 0 {
		t.Errorf("expected no edges, got %v", got)
	}
}
