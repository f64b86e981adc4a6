package eip712

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EncodeType returns the canonical type string of name: the struct itself
// followed by every struct it references, sorted by name, e.g.
// "Mail(Person from,Person to,string contents)Person(string name,address wallet)".
func (td *TypedData) EncodeType(name string) (string, error) {
	deps := make(map[string]struct{})
	if err := td.collectDependencies(name, deps); err != nil {
		return "", err
	}
	delete(deps, name)

	rest := make([]string, 0, len(deps))
	for dep := range deps {
		rest = append(rest, dep)
	}
	sort.Strings(rest)

	var b strings.Builder
	for _, t := range append([]string{name}, rest...) {
		b.WriteString(t)
		b.WriteByte('(')
		for i, f := range td.Types[t] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Type)
			b.WriteByte(' ')
			b.WriteString(f.Name)
		}
		b.WriteByte(')')
	}
	return b.String(), nil
}

func (td *TypedData) collectDependencies(name string, found map[string]struct{}) error {
	if _, ok := found[name]; ok {
		return nil
	}
	fields, ok := td.Types[name]
	if !ok {
		return &SchemaError{Type: name, Reason: "type is not declared"}
	}
	found[name] = struct{}{}

	for _, f := range fields {
		base := baseType(f.Type)
		if _, declared := td.Types[base]; !declared {
			continue
		}
		if err := td.collectDependencies(base, found); err != nil {
			return err
		}
	}
	return nil
}

// TypeHash returns keccak256(EncodeType(name)).
func (td *TypedData) TypeHash(name string) (common.Hash, error) {
	encoded, err := td.EncodeType(name)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(encoded)), nil
}

// EncodeData returns typeHash(name) followed by one 32-byte word per
// declared member of name, in declaration order.
func (td *TypedData) EncodeData(name string, value Message) ([]byte, error) {
	typeHash, err := td.TypeHash(name)
	if err != nil {
		return nil, err
	}

	fields := td.Types[name]
	out := make([]byte, 0, 32*(len(fields)+1))
	out = append(out, typeHash.Bytes()...)

	for _, f := range fields {
		v, ok := value[f.Name]
		if !ok {
			return nil, &SchemaError{Type: name, Field: f.Name, Reason: "missing value"}
		}
		word, err := td.encodeValue(name, f, f.Type, v)
		if err != nil {
			return nil, err
		}
		out = append(out, word...)
	}

	if len(value) > len(fields) {
		for key := range value {
			if !hasField(fields, key) {
				return nil, &SchemaError{Type: name, Field: key, Reason: "value for undeclared member"}
			}
		}
	}
	return out, nil
}

// HashStruct returns keccak256(EncodeData(name, value)).
func (td *TypedData) HashStruct(name string, value Message) (common.Hash, error) {
	encoded, err := td.EncodeData(name, value)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

func (td *TypedData) encodeValue(owner string, f Type, typ string, v any) ([]byte, error) {
	if elem, length, ok := parseArray(typ); ok {
		items, ok := toSlice(v)
		if !ok {
			return nil, &SchemaError{Type: owner, Field: f.Name, Reason: fmt.Sprintf("expected array for %s, got %T", typ, v)}
		}
		if length >= 0 && len(items) != length {
			return nil, &SchemaError{Type: owner, Field: f.Name, Reason: fmt.Sprintf("expected %d elements, got %d", length, len(items))}
		}
		buf := make([]byte, 0, 32*len(items))
		for _, item := range items {
			word, err := td.encodeValue(owner, f, elem, item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, word...)
		}
		return crypto.Keccak256(buf), nil
	}

	if _, isStruct := td.Types[typ]; isStruct {
		m, ok := toMessage(v)
		if !ok {
			return nil, &SchemaError{Type: owner, Field: f.Name, Reason: fmt.Sprintf("expected struct value for %s, got %T", typ, v)}
		}
		h, err := td.HashStruct(typ, m)
		if err != nil {
			return nil, err
		}
		return h.Bytes(), nil
	}

	word, err := encodeAtomic(typ, v)
	if err != nil {
		return nil, &SchemaError{Type: owner, Field: f.Name, Reason: err.Error()}
	}
	return word, nil
}

// parseArray splits "T[n]" or "T[]" into T and n (-1 for dynamic arrays).
func parseArray(typ string) (string, int, bool) {
	if !strings.HasSuffix(typ, "]") {
		return "", 0, false
	}
	open := strings.LastIndex(typ, "[")
	if open <= 0 {
		return "", 0, false
	}
	size := typ[open+1 : len(typ)-1]
	if size == "" {
		return typ[:open], -1, true
	}
	n, err := strconv.Atoi(size)
	if err != nil || n < 0 {
		return "", 0, false
	}
	return typ[:open], n, true
}

// baseType strips every array suffix from typ.
func baseType(typ string) string {
	for {
		elem, _, ok := parseArray(typ)
		if !ok {
			return typ
		}
		typ = elem
	}
}

func isAtomic(typ string) bool {
	switch typ {
	case "address", "bool", "string", "bytes":
		return true
	}
	if _, ok := bytesSize(typ); ok {
		return true
	}
	_, _, ok := intSize(typ)
	return ok
}

// bytesSize parses bytes1..bytes32.
func bytesSize(typ string) (int, bool) {
	if !strings.HasPrefix(typ, "bytes") || typ == "bytes" {
		return 0, false
	}
	n, err := strconv.Atoi(typ[len("bytes"):])
	if err != nil || n < 1 || n > 32 {
		return 0, false
	}
	return n, true
}

// intSize parses uint8..uint256 and int8..int256 in steps of 8.
func intSize(typ string) (bits int, signed bool, ok bool) {
	var digits string
	switch {
	case strings.HasPrefix(typ, "uint"):
		digits = typ[len("uint"):]
	case strings.HasPrefix(typ, "int"):
		digits, signed = typ[len("int"):], true
	default:
		return 0, false, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return 0, false, false
	}
	return n, signed, true
}
