package modelstore

import (
	"errors"
	"fmt"

	"alloy-predictor/pkg/artifact"
)

type treeNode struct {
	column    int
	threshold float64
	left      int
	right     int
	value     []float64
	leaf      bool
}

// tree is a compiled flattened binary tree with node 0 as the root.
type tree struct {
	nodes []treeNode
}

// compileTree resolves feature names to columns and checks the node layout.
// Children must sit after their parent, which rules out cycles.
func compileTree(src artifact.Tree, position map[string]int, leafWidth int) (*tree, error) {
	if len(src.Nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}

	nodes := make([]treeNode, len(src.Nodes))
	for i, n := range src.Nodes {
		if n.IsLeaf() {
			if len(n.Value) != leafWidth {
				return nil, fmt.Errorf("leaf %d has %d values, expected %d", i, len(n.Value), leafWidth)
			}
			nodes[i] = treeNode{column: -1, left: -1, right: -1, value: n.Value, leaf: true}
			continue
		}

		col, ok := position[n.Feature]
		if !ok {
			return nil, fmt.Errorf("node %d splits on unknown feature %q", i, n.Feature)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(src.Nodes) || n.Right >= len(src.Nodes) {
			return nil, fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
		nodes[i] = treeNode{column: col, threshold: n.Threshold, left: n.Left, right: n.Right}
	}

	return &tree{nodes: nodes}, nil
}

// leaf walks x down the tree and returns the reached leaf's values.
func (t *tree) leaf(x []float64) []float64 {
	idx := 0
	for {
		node := t.nodes[idx]
		if node.leaf {
			return node.value
		}
		if x[node.column] <= node.threshold {
			idx = node.left
		} else {
			idx = node.right
		}
	}
}

func featurePositions(names []string) map[string]int {
	position := make(map[string]int, len(names))
	for i, name := range names {
		position[name] = i
	}
	return position
}

func compileTrees(src []artifact.Tree, names []string, leafWidth int) ([]*tree, error) {
	if len(src) == 0 {
		return nil, errors.New("artifact has no trees")
	}
	position := featurePositions(names)
	trees := make([]*tree, len(src))
	for i, s := range src {
		t, err := compileTree(s, position, leafWidth)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = t
	}
	return trees, nil
}
