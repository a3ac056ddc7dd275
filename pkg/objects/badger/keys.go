package badger

// Key namespaces
// ==============
//
// BadgerDB is a flat key-value store, so the two record types live under
// distinct prefixes:
//
//	Data Type    Prefix  Key Format       Value
//	=====================================================
//	Instances    "o:"    o:<assigned key> instance JSON
//	Schemas      "s:"    s:<schema name>  schema JSON (fields + descriptor)
//
// Assigned keys are the walker's hierarchical identifiers (e.g.
// "R.items[0]"), which never contain a prefix collision because both
// prefixes end in ':' and assigned keys are opaque strings here.

const (
	prefixInstance = "o:"
	prefixSchema   = "s:"
)

func keyInstance(key string) []byte { return []byte(prefixInstance + key) }
func keySchema(name string) []byte  { return []byte(prefixSchema + name) }
