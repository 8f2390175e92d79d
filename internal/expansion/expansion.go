// Package expansion derives specialized retrieval queries from a user
// question by detecting LPC driver topics.
//
// Expansion is pure: the same question always yields the same queries in the
// same order (the original first, then each triggered topic in declaration
// order, then the generic driver booster).
package expansion

import "strings"

// Topic identifies one keyword bucket.
type Topic string

const (
	TopicCodegen         Topic = "codegen"
	TopicVM              Topic = "vm"
	TopicDataStructures  Topic = "data_structures"
	TopicObjectModel     Topic = "object_model"
	TopicBuiltinFunction Topic = "builtin_function"
)

// Bucket pairs trigger words with the booster queries they add.
type Bucket struct {
	Topic    Topic
	Triggers []string
	Boosters []string
}

// GenericBooster is appended when the question does not mention the driver.
const GenericBooster = "LPC driver C implementation"

var buckets = []Bucket{
	{
		Topic:    TopicCodegen,
		Triggers: []string{"codegen", "compiler", "bytecode", "opcode"},
		Boosters: []string{
			"LPC driver bytecode VM compilation",
			"MudOS vm.c opcode dispatch",
			"FluffOS interpret.c stack machine",
			"stack VM codegen AST visitor",
			"opcode emission C bytecode",
		},
	},
	{
		Topic:    TopicVM,
		Triggers: []string{"vm", "virtual machine", "interpreter", "execute"},
		Boosters: []string{
			"stack-based virtual machine implementation",
			"LPC driver VM execution loop",
			"bytecode interpreter instruction dispatch",
			"call stack frame management",
		},
	},
	{
		Topic:    TopicDataStructures,
		Triggers: []string{"struct", "typedef", "data structure"},
		Boosters: []string{
			"tagged union VMValue LPC",
			"OpCode enum C definition",
			"symbol table codegen",
		},
	},
	{
		Topic:    TopicObjectModel,
		Triggers: []string{"object", "inherit", "call_other", "call method", "shadow"},
		Boosters: []string{
			"LPC object inheritance chain resolution",
			"MudOS object.c call_other implementation",
			"FluffOS object.c CALL_METHOD opcode",
			"LPC object variables inherit offsets",
			"environment inventory traversal driver",
		},
	},
	{
		// call_other also triggers here: it is the most used efun.
		Topic:    TopicBuiltinFunction,
		Triggers: []string{"efun", "call_out", "call_other", "simul", "apply", "function_exists"},
		Boosters: []string{
			"LPC efun binding table",
			"FluffOS efun_defs.c call_other",
			"simul_efun dispatch master object",
			"call_out scheduler driver",
			"children() and living() driver code",
		},
	},
}

// Buckets returns a copy of the topic table in declaration order.
func Buckets() []Bucket {
	out := make([]Bucket, len(buckets))
	copy(out, buckets)
	return out
}

// Topics records which buckets a question triggers.
type Topics struct {
	Codegen         bool `json:"codegen"`
	VM              bool `json:"vm"`
	DataStructures  bool `json:"data_structures"`
	ObjectModel     bool `json:"object_model"`
	BuiltinFunction bool `json:"builtin_function"`
	MentionsDriver  bool `json:"mentions_driver"`
}

// Has reports whether topic was detected.
func (t Topics) Has(topic Topic) bool {
	switch topic {
	case TopicCodegen:
		return t.Codegen
	case TopicVM:
		return t.VM
	case TopicDataStructures:
		return t.DataStructures
	case TopicObjectModel:
		return t.ObjectModel
	case TopicBuiltinFunction:
		return t.BuiltinFunction
	}
	return false
}

// Detect runs case-insensitive trigger detection on query.
func Detect(query string) Topics {
	q := strings.ToLower(query)
	var t Topics
	for _, b := range buckets {
		if !triggered(q, b.Triggers) {
			continue
		}
		switch b.Topic {
		case TopicCodegen:
			t.Codegen = true
		case TopicVM:
			t.VM = true
		case TopicDataStructures:
			t.DataStructures = true
		case TopicObjectModel:
			t.ObjectModel = true
		case TopicBuiltinFunction:
			t.BuiltinFunction = true
		}
	}
	t.MentionsDriver = strings.Contains(q, "driver")
	return t
}

// Expand returns query followed by the boosters of every triggered topic
// and, unless the question mentions the driver, the generic booster.
func Expand(query string) []string {
	topics := Detect(query)
	out := []string{query}
	for _, b := range buckets {
		if topics.Has(b.Topic) {
			out = append(out, b.Boosters...)
		}
	}
	if !topics.MentionsDriver {
		out = append(out, GenericBooster)
	}
	return out
}

func triggered(queryLower string, triggers []string) bool {
	for _, w := range triggers {
		if strings.Contains(queryLower, w) {
			return true
		}
	}
	return false
}
