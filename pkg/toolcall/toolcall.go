package toolcall

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Call is the canonical tool-call shape every wire variant is reduced to:
// a function name plus an ordered argument map. Treat it as immutable once
// built; only the event normalizer constructs calls.
type Call struct {
	Name      string
	Arguments *orderedmap.OrderedMap[string, any]

	// Inferred marks calls synthesized from user speech rather than
	// emitted by the agent. Observability only.
	Inferred bool
}

// New builds a call with the given name and alternating key/value
// argument pairs.
func New(name string, kv ...any) *Call {
	args := orderedmap.New[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		args.Set(key, kv[i+1])
	}
	return &Call{Name: name, Arguments: args}
}

// String renders the call as name(key: value, ...) in argument order.
func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	if c.Arguments != nil {
		first := true
		for pair := c.Arguments.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%s: %v", pair.Key, pair.Value)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// StringArg returns the named argument as a string.
func (c *Call) StringArg(key string) (string, bool) {
	if c.Arguments == nil {
		return "", false
	}
	v, ok := c.Arguments.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IntArg returns the named argument as an int, coercing the numeric
// encodings JSON decoding can produce.
func (c *Call) IntArg(key string) (int, bool) {
	if c.Arguments == nil {
		return 0, false
	}
	v, ok := c.Arguments.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
