package objects

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/docfold/docstore/internal/logger"
)

// Discovery is one persistable instance found during a walk, with the key
// it will be persisted under and its schema descriptor.
type Discovery struct {
	Key    string
	Object Persistable
	Schema *Schema
}

// Walk performs a depth-first traversal of the object graph rooted at root
// and returns every reachable persistable instance paired with its assigned
// key. Keys follow the reference path from the root:
//
//	root field:    parentKey + "." + fieldName
//	list element:  parentKey + "[" + index + "]"
//	map entry:     parentKey + "['" + mapKey + "']"
//
// Map entries are visited in sorted key order, so a walk over the same
// shaped graph is fully deterministic.
//
// Cycles are detected with a stack of instances currently being visited,
// compared by identity: an instance already on the stack is skipped without
// recursing, so back-references terminate. An instance reachable along
// several non-cyclic paths is discovered once per path with a distinct key;
// the graph is treated as a tree of ownership, not a shared heap.
//
// Walk never fails: a nil root yields an empty result.
func Walk(rootKey string, root Persistable) []Discovery {
	w := &walker{}
	w.walkObject(rootKey, root)
	return w.found
}

type walker struct {
	found []Discovery
	stack []Persistable
}

func (w *walker) walkObject(key string, obj Persistable) {
	if isNil(obj) {
		return
	}
	if w.onStack(obj) {
		logger.Debug("walk: skipping cyclic reference at %s", key)
		return
	}
	w.stack = append(w.stack, obj)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	w.found = append(w.found, Discovery{Key: key, Object: obj, Schema: obj.Schema()})

	for _, field := range obj.PersistableFields() {
		w.walkValue(key+"."+field.Name, field.Value)
	}
}

func (w *walker) walkValue(key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case Persistable:
		w.walkObject(key, v)
	case []Persistable:
		for i, item := range v {
			w.walkObject(key+"["+strconv.Itoa(i)+"]", item)
		}
	case map[string]Persistable:
		mapKeys := make([]string, 0, len(v))
		for k := range v {
			mapKeys = append(mapKeys, k)
		}
		sort.Strings(mapKeys)
		for _, k := range mapKeys {
			w.walkObject(key+"['"+k+"']", v[k])
		}
	default:
		logger.Warn("walk: ignoring field %s of unsupported type %T", key, value)
	}
}

func (w *walker) onStack(obj Persistable) bool {
	for _, v := range w.stack {
		if v == obj {
			return true
		}
	}
	return false
}

// isNil also catches a typed nil pointer stored in the interface, which a
// plain == nil comparison would miss.
func isNil(obj Persistable) bool {
	if obj == nil {
		return true
	}
	rv := reflect.ValueOf(obj)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
