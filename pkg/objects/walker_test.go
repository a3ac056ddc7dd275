package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// node is the test fixture: a persistable with one direct child, a list and
// a map of children.
type node struct {
	key   string
	Name  string `json:"name"`
	Next  *node
	Items []*node
	Tags  map[string]*node
}

var nodeSchema = &Schema{
	Name:       "test.node",
	Fields:     []SchemaField{{Name: "name", Kind: KindString}},
	Descriptor: []byte("node-v1"),
}

func (n *node) ID() string      { return n.key }
func (n *node) SetID(id string) { n.key = id }
func (n *node) Schema() *Schema { return nodeSchema }

func (n *node) PersistableFields() []Field {
	items := make([]Persistable, len(n.Items))
	for i, item := range n.Items {
		items[i] = item
	}
	tags := make(map[string]Persistable, len(n.Tags))
	for k, v := range n.Tags {
		tags[k] = v
	}
	return []Field{
		{Name: "next", Value: n.Next},
		{Name: "items", Value: items},
		{Name: "tags", Value: tags},
	}
}

func keysOf(discoveries []Discovery) []string {
	keys := make([]string, len(discoveries))
	for i, d := range discoveries {
		keys[i] = d.Key
	}
	return keys
}

func TestWalkSingleObject(t *testing.T) {
	root := &node{Name: "root"}
	found := Walk("R", root)

	require.Len(t, found, 1)
	assert.Equal(t, "R", found[0].Key)
	assert.Same(t, root, found[0].Object.(*node))
	assert.Same(t, nodeSchema, found[0].Schema)
}

func TestWalkListElements(t *testing.T) {
	x := &node{Name: "x"}
	y := &node{Name: "y"}
	root := &node{Name: "root", Items: []*node{x, y}}

	found := Walk("R", root)
	assert.Equal(t, []string{"R", "R.items[0]", "R.items[1]"}, keysOf(found))
}

func TestWalkMapEntriesSortedByKey(t *testing.T) {
	root := &node{Name: "root", Tags: map[string]*node{
		"zebra": {Name: "z"},
		"alpha": {Name: "a"},
	}}

	found := Walk("R", root)
	assert.Equal(t, []string{"R", "R.tags['alpha']", "R.tags['zebra']"}, keysOf(found))
}

func TestWalkNestedKeys(t *testing.T) {
	leaf := &node{Name: "leaf"}
	mid := &node{Name: "mid", Items: []*node{leaf}}
	root := &node{Name: "root", Next: mid}

	found := Walk("R", root)
	assert.Equal(t, []string{"R", "R.next", "R.next.items[0]"}, keysOf(found))
}

func TestWalkSelfReferenceProducesOneNode(t *testing.T) {
	root := &node{Name: "self"}
	root.Next = root

	found := Walk("R", root)
	require.Len(t, found, 1)
	assert.Equal(t, "R", found[0].Key)
}

func TestWalkMutualCycleTerminates(t *testing.T) {
	a := &node{Name: "a"}
	b := &node{Name: "b"}
	a.Next = b
	b.Next = a

	found := Walk("R", a)
	assert.Equal(t, []string{"R", "R.next"}, keysOf(found))
}

func TestWalkSharedNodeGetsOneKeyPerPath(t *testing.T) {
	// Two non-cyclic paths to the same instance: tree-shaped identity,
	// one discovery per path.
	shared := &node{Name: "shared"}
	root := &node{Name: "root", Next: shared, Items: []*node{shared}}

	found := Walk("R", root)
	assert.Equal(t, []string{"R", "R.next", "R.items[0]"}, keysOf(found))
}

func TestWalkIsDeterministic(t *testing.T) {
	build := func() *node {
		return &node{
			Name: "root",
			Next: &node{Name: "child"},
			Items: []*node{
				{Name: "i0"},
				{Name: "i1"},
			},
			Tags: map[string]*node{
				"b": {Name: "tb"},
				"a": {Name: "ta"},
				"c": {Name: "tc"},
			},
		}
	}

	first := keysOf(Walk("R", build()))
	second := keysOf(Walk("R", build()))
	assert.Equal(t, first, second)
}

func TestWalkSkipsNilChildren(t *testing.T) {
	root := &node{Name: "root", Items: []*node{nil}}

	found := Walk("R", root)
	assert.Equal(t, []string{"R"}, keysOf(found))
}

func TestWalkNilRoot(t *testing.T) {
	assert.Empty(t, Walk("R", nil))
	var typedNil *node
	assert.Empty(t, Walk("R", typedNil))
}

func TestWalkDeduplicatesSchemasByIdentity(t *testing.T) {
	root := &node{Name: "root", Items: []*node{{Name: "a"}, {Name: "b"}}}

	found := Walk("R", root)
	seen := make(map[*Schema]int)
	for _, d := range found {
		seen[d.Schema]++
	}
	require.Len(t, seen, 1, "all instances share one schema value")
	assert.Equal(t, 3, seen[nodeSchema])
}
