// Package schema is the canonical source of truth for raw and clean
// aspect schemas, and for the configuration derived from them
// (dequantization rules, enum rules). Schemas are declared as plain
// tagged data (see raw.go, clean.go) and the derived maps are built
// once at startup by Registry.build, rather than by runtime reflection
// over a dynamic schema definition language.
package schema

import "fmt"

// ScalarType is the set of primitive types a positional raw field may
// declare.
type ScalarType int

const (
	ScalarInt64 ScalarType = iota
	ScalarBool
	ScalarString
)

func (s ScalarType) String() string {
	switch s {
	case ScalarInt64:
		return "Int64"
	case ScalarBool:
		return "Bool"
	case ScalarString:
		return "String"
	default:
		return "Unknown"
	}
}

// DequantizeRule marks a raw integer field as requiring division by
// Divisor to produce its clean float64 counterpart.
type DequantizeRule struct {
	Divisor float64
}

// EnumMapRule marks a raw integer field as holding the integer code of
// EnumKind; the clean record carries the symbolic name under CleanField.
type EnumMapRule struct {
	CleanField string
	EnumKind   string
}

// FieldMeta is the possibly-empty metadata bag attached to a raw field.
// A field carries at most one of the two rules (enforced by validation
// at registry build time, mirroring spec §3's "semantically disjoint"
// constraint).
type FieldMeta struct {
	Dequantize *DequantizeRule
	EnumMap    *EnumMapRule
}

// RawField is one positional field descriptor of a raw aspect schema.
type RawField struct {
	Name     string
	Type     ScalarType
	Optional bool
	Meta     FieldMeta
}

// RawSchema is the positional field list for one aspect's undecoded
// records.
type RawSchema struct {
	Aspect string
	Fields []RawField
}

// Arity is the number of positional fields the raw schema expects.
func (s RawSchema) Arity() int { return len(s.Fields) }

// CleanType is the set of types a clean schema field may hold after
// value transformation.
type CleanType int

const (
	CleanInt64 CleanType = iota
	CleanFloat64
	CleanBool
	CleanString
	CleanEnum
)

func (c CleanType) String() string {
	switch c {
	case CleanInt64:
		return "Int64"
	case CleanFloat64:
		return "Float64"
	case CleanBool:
		return "Bool"
	case CleanString:
		return "String"
	case CleanEnum:
		return "Enum"
	default:
		return "Unknown"
	}
}

// CleanField is one field descriptor of a clean (post-transform) aspect
// schema.
type CleanField struct {
	Name     string
	Type     CleanType
	Optional bool
	// EnumKind names the registered EnumKind when Type == CleanEnum.
	EnumKind string
}

// CleanSchema is the field list for one aspect's post-transform records.
// Field order is authoritative for column ordering in the materialized
// table (spec §3).
type CleanSchema struct {
	Aspect string
	Fields []CleanField
}

func (s CleanSchema) fieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field looks up a field by name, returning ok=false if absent.
func (s CleanSchema) Field(name string) (CleanField, bool) {
	i := s.fieldIndex(name)
	if i < 0 {
		return CleanField{}, false
	}
	return s.Fields[i], true
}

// EnumKind is a closed mapping between a symbolic name and a positive
// integer code, registered globally by string key (spec §3).
type EnumKind struct {
	Kind       string
	nameToCode map[string]int64
	codeToName map[int64]string
	// order preserves declaration order for deterministic iteration
	// in Names().
	order []string
}

// NewEnumKind builds an EnumKind from an ordered list of (name, code)
// pairs. Codes must be positive per spec §3.
func NewEnumKind(kind string, members []EnumMember) *EnumKind {
	ek := &EnumKind{
		Kind:       kind,
		nameToCode: make(map[string]int64, len(members)),
		codeToName: make(map[int64]string, len(members)),
		order:      make([]string, 0, len(members)),
	}
	for _, m := range members {
		if m.Code <= 0 {
			panic(fmt.Sprintf("enum %s: member %s has non-positive code %d", kind, m.Name, m.Code))
		}
		ek.nameToCode[m.Name] = m.Code
		ek.codeToName[m.Code] = m.Name
		ek.order = append(ek.order, m.Name)
	}
	return ek
}

// EnumMember is one (name, code) pair used to construct an EnumKind.
type EnumMember struct {
	Name string
	Code int64
}

// NameOf returns the symbolic name for a code, or ok=false if the code
// is not a member (spec §4.3: unknown codes are advisory, not
// structural).
func (e *EnumKind) NameOf(code int64) (string, bool) {
	name, ok := e.codeToName[code]
	return name, ok
}

// CodeOf returns the integer code for a symbolic name.
func (e *EnumKind) CodeOf(name string) (int64, bool) {
	code, ok := e.nameToCode[name]
	return code, ok
}

// CodeToNameMap returns a fresh copy of the code->name mapping, in the
// shape the output contract engine snapshots into transform metadata
// (spec §3, §4.5).
func (e *EnumKind) CodeToNameMap() map[int64]string {
	out := make(map[int64]string, len(e.codeToName))
	for k, v := range e.codeToName {
		out[k] = v
	}
	return out
}

// Names returns the member names in declaration order.
func (e *EnumKind) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}
