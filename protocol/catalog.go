package protocol

import (
	"sort"

	"github.com/gear6io/gpsd4go/pkg/errors"
)

type entry struct {
	tag    string // empty for abstract types
	parent Type
	newFn  func() Message
}

// catalog is the whole message hierarchy. The root has itself as parent.
var catalog = map[Type]entry{
	TypeMessage: {parent: TypeMessage},
	TypeReport:  {parent: TypeMessage},
	TypeCommand: {parent: TypeMessage},

	TypeTPV:  {tag: "TPV", parent: TypeReport, newFn: func() Message { return &TPV{} }},
	TypeSKY:  {tag: "SKY", parent: TypeReport, newFn: func() Message { return &SKY{} }},
	TypeGST:  {tag: "GST", parent: TypeReport, newFn: func() Message { return &GST{} }},
	TypeATT:  {tag: "ATT", parent: TypeReport, newFn: func() Message { return &ATT{} }},
	TypeTOFF: {tag: "TOFF", parent: TypeReport, newFn: func() Message { return &TOFF{} }},
	TypePPS:  {tag: "PPS", parent: TypeReport, newFn: func() Message { return &PPS{} }},

	TypeVersion: {tag: "VERSION", parent: TypeCommand, newFn: func() Message { return &Version{} }},
	TypeWatch:   {tag: "WATCH", parent: TypeCommand, newFn: func() Message { return &Watch{} }},
	TypeDevice:  {tag: "DEVICE", parent: TypeCommand, newFn: func() Message { return &Device{} }},
	TypeDevices: {tag: "DEVICES", parent: TypeCommand, newFn: func() Message { return &Devices{} }},
	TypePoll:    {tag: "POLL", parent: TypeCommand, newFn: func() Message { return &Poll{} }},

	TypeError: {tag: "ERROR", parent: TypeMessage, newFn: func() Message { return &Error{} }},
}

var (
	tagIndex = make(map[string]Type)
	chains   = make(map[Type][]Type)
)

func init() {
	for t, e := range catalog {
		if e.tag != "" {
			tagIndex[e.tag] = t
		}
		chains[t] = buildChain(t)
	}
}

func buildChain(t Type) []Type {
	chain := []Type{t}
	for cur := t; cur != TypeMessage; {
		cur = catalog[cur].parent
		chain = append(chain, cur)
	}
	return chain
}

// ChainOf returns t followed by its ancestors, most specific first, ending
// with TypeMessage. The returned slice must not be modified.
func ChainOf(t Type) []Type {
	return chains[t]
}

// TagOf returns the wire tag of a concrete type, or "" for abstract and
// unknown types.
func TagOf(t Type) string {
	return catalog[t].tag
}

// TypeForTag resolves a wire tag to its concrete type.
func TypeForTag(tag string) (Type, bool) {
	t, ok := tagIndex[tag]
	return t, ok
}

// IsConcrete reports whether t can be instantiated.
func IsConcrete(t Type) bool {
	return catalog[t].newFn != nil
}

// IsA reports whether t is ancestor or t itself.
func IsA(t, ancestor Type) bool {
	for _, c := range chains[t] {
		if c == ancestor {
			return true
		}
	}
	return false
}

// New returns an empty message of concrete type t.
func New(t Type) (Message, error) {
	e, ok := catalog[t]
	if !ok || e.newFn == nil {
		return nil, errors.Newf(ErrUnknownType, "type %s cannot be instantiated", t)
	}
	return e.newFn(), nil
}

// Types lists all catalog types in ascending order.
func Types() []Type {
	types := make([]Type, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
