// Package normalize reduces the transport's shape-shifting event payloads
// to the canonical tool-call form. The transport guarantees nothing about
// payload structure, so extraction is an ordered list of independent
// strategies over an untyped record; the first one that succeeds wins and
// "no match" is a normal return, not an error.
package normalize

import (
	"encoding/json"
	"log/slog"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/shelftalk/shelftalk/pkg/toolcall"
)

// Normalizer turns one raw transport payload into zero or one canonical
// tool call.
type Normalizer struct {
	inferFromSpeech bool
}

// New returns a normalizer. When inferFromSpeech is true, user-utterance
// events that match no extraction strategy are scanned for keywords and
// may synthesize a best-effort call.
func New(inferFromSpeech bool) *Normalizer {
	return &Normalizer{inferFromSpeech: inferFromSpeech}
}

type strategy func(map[string]any) (*toolcall.Call, bool)

var strategies = []strategy{
	extractDirect,
	extractProperties,
	extractToolCallArray,
	extractTaggedEvent,
	extractChoices,
	extractBareFunction,
}

// Normalize returns the canonical call carried by payload, or false when
// the payload carries none.
func (n *Normalizer) Normalize(payload map[string]any) (*toolcall.Call, bool) {
	if payload == nil {
		return nil, false
	}
	for _, extract := range strategies {
		if call, ok := extract(payload); ok {
			return call, true
		}
	}
	if n.inferFromSpeech {
		if call, ok := inferFromUtterance(payload); ok {
			return call, true
		}
	}
	slog.Debug("No tool call in payload", "keys", mapKeys(payload))
	return nil, false
}

// extractDirect handles payloads carrying the name and arguments at top
// level: {"function_name": ..., "arguments": ...}.
func extractDirect(m map[string]any) (*toolcall.Call, bool) {
	if _, ok := m["arguments"]; !ok {
		return nil, false
	}
	return callFrom(functionName(m), m["arguments"])
}

// extractProperties handles the same pair one level down under a
// "properties" wrapper.
func extractProperties(m map[string]any) (*toolcall.Call, bool) {
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return nil, false
	}
	return extractDirect(props)
}

// extractToolCallArray handles {"tool_calls": [{"function": {"name": ...,
// "arguments": ...}}, ...]}. Only the first descriptor is used; string
// arguments are parsed as JSON.
func extractToolCallArray(m map[string]any) (*toolcall.Call, bool) {
	calls, ok := m["tool_calls"].([]any)
	if !ok || len(calls) == 0 {
		return nil, false
	}
	first, ok := calls[0].(map[string]any)
	if !ok {
		return nil, false
	}
	return extractBareFunction(first)
}

// toolCallEventTypes are the event-type tags recognized as tool-call
// envelopes wrapping a "properties" descriptor.
var toolCallEventTypes = map[string]bool{
	"conversation.tool_call": true,
	"conversation.toolcall":  true,
	"tool_call":              true,
	"function_call":          true,
}

func extractTaggedEvent(m map[string]any) (*toolcall.Call, bool) {
	tag, ok := m["event_type"].(string)
	if !ok || !toolCallEventTypes[tag] {
		return nil, false
	}
	return extractProperties(m)
}

// extractChoices handles completion-style responses: {"choices":
// [{"message": {"tool_calls": [...]}}]}. Each choice may nest the
// multi-call array directly or under "message".
func extractChoices(m map[string]any) (*toolcall.Call, bool) {
	choices, ok := m["choices"].([]any)
	if !ok {
		return nil, false
	}
	for _, c := range choices {
		choice, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if call, ok := extractToolCallArray(choice); ok {
			return call, true
		}
		if msg, ok := choice["message"].(map[string]any); ok {
			if call, ok := extractToolCallArray(msg); ok {
				return call, true
			}
		}
	}
	return nil, false
}

// extractBareFunction handles a lone {"function": {"name": ...,
// "arguments": ...}} descriptor not nested under any wrapper.
func extractBareFunction(m map[string]any) (*toolcall.Call, bool) {
	fn, ok := m["function"].(map[string]any)
	if !ok {
		return nil, false
	}
	return callFrom(functionName(fn), fn["arguments"])
}

func functionName(m map[string]any) string {
	if name, ok := m["function_name"].(string); ok && name != "" {
		return name
	}
	if name, ok := m["name"].(string); ok {
		return name
	}
	return ""
}

func callFrom(name string, rawArgs any) (*toolcall.Call, bool) {
	if name == "" {
		return nil, false
	}
	args, ok := parseArguments(rawArgs)
	if !ok {
		return nil, false
	}
	return &toolcall.Call{Name: name, Arguments: args}, true
}

// parseArguments coerces the argument value into an ordered map. JSON
// strings keep their wire order; decoded maps have already lost theirs,
// so their keys are sorted for a stable canonical order.
func parseArguments(v any) (*orderedmap.OrderedMap[string, any], bool) {
	switch args := v.(type) {
	case nil:
		return orderedmap.New[string, any](), true
	case string:
		om := orderedmap.New[string, any]()
		if args == "" {
			return om, true
		}
		if err := json.Unmarshal([]byte(args), om); err != nil {
			return nil, false
		}
		return om, true
	case map[string]any:
		om := orderedmap.New[string, any]()
		for _, k := range mapKeys(args) {
			om.Set(k, args[k])
		}
		return om, true
	case *orderedmap.OrderedMap[string, any]:
		return args, true
	default:
		return nil, false
	}
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
