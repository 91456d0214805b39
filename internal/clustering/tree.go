package clustering

import (
	"encoding/json"
	"fmt"
	"sort"

	"pricecube/internal/config"
)

// Node is a dendrogram node. Leaves carry a Name, internal nodes a merge
// Distance and exactly two Children.
type Node struct {
	Name     string
	Distance float64
	Children []*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Leaves returns the leaf names from left to right.
func (n *Node) Leaves() []string {
	if n.IsLeaf() {
		return []string{n.Name}
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// MarshalJSON writes leaves as {"name": ...} and internal nodes as
// {"distance": d, "children": [left, right]}.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.IsLeaf() {
		return json.Marshal(struct {
			Name string `json:"name"`
		}{n.Name})
	}
	return json.Marshal(struct {
		Distance float64 `json:"distance"`
		Children []*Node `json:"children"`
	}{n.Distance, n.Children})
}

// BuildTree turns a linkage over len(labels) observations into a tree.
func BuildTree(labels []string, merges []Merge) (*Node, error) {
	n := len(labels)
	if n == 0 {
		return nil, ErrNoObservations
	}
	if len(merges) != n-1 {
		return nil, fmt.Errorf("clustering: %d merges for %d observations", len(merges), n)
	}

	nodes := make([]*Node, n, 2*n-1)
	for i, l := range labels {
		nodes[i] = &Node{Name: l}
	}
	for i, m := range merges {
		if m.Left >= n+i || m.Right >= n+i || nodes[m.Left] == nil || nodes[m.Right] == nil {
			return nil, fmt.Errorf("clustering: merge %d references unknown cluster", i)
		}
		nodes = append(nodes, &Node{
			Distance: m.Distance,
			Children: []*Node{nodes[m.Left], nodes[m.Right]},
		})
		nodes[m.Left], nodes[m.Right] = nil, nil
	}
	return nodes[len(nodes)-1], nil
}

// Cut assigns every observation to one of k flat clusters by undoing the
// last k-1 merges. Labels are numbered from 0 in order of first leaf.
func Cut(n int, merges []Merge, k int) ([]int, error) {
	if n == 0 {
		return nil, nil
	}
	if len(merges) != n-1 {
		return nil, fmt.Errorf("clustering: %d merges for %d observations", len(merges), n)
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	for i, m := range merges[:n-k] {
		if m.Left < 0 || m.Right < 0 || m.Left >= n+i || m.Right >= n+i {
			return nil, fmt.Errorf("clustering: merge %d references unknown cluster", i)
		}
		parent[m.Left] = n + i
		parent[m.Right] = n + i
	}
	root := func(x int) int {
		for parent[x] != x {
			x = parent[x]
		}
		return x
	}

	out := make([]int, n)
	seen := make(map[int]int)
	for i := 0; i < n; i++ {
		r := root(i)
		label, ok := seen[r]
		if !ok {
			label = len(seen)
			seen[r] = label
		}
		out[i] = label
	}
	return out, nil
}

// Document is one item to cluster.
type Document struct {
	Label string
	Text  string
}

// ProductDocuments returns one document per catalog product, sorted by
// product name, labelled by SKU. The text is the name and description.
func ProductDocuments(catalog *config.Catalog) []Document {
	products := append([]config.Product(nil), catalog.Products...)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	docs := make([]Document, len(products))
	for i, p := range products {
		docs[i] = Document{Label: p.SKU, Text: p.Name + " " + p.Description}
	}
	return docs
}

// Cluster embeds the documents and returns their Ward dendrogram.
func Cluster(docs []Document) (*Node, error) {
	texts := make([]string, len(docs))
	labels := make([]string, len(docs))
	for i, d := range docs {
		texts[i], labels[i] = d.Text, d.Label
	}
	vectors, _ := Vectorize(texts)
	merges, err := WardLinkage(vectors)
	if err != nil {
		return nil, err
	}
	return BuildTree(labels, merges)
}

// ProductTree clusters the catalog's product descriptions.
func ProductTree(catalog *config.Catalog) (*Node, error) {
	return Cluster(ProductDocuments(catalog))
}
