// Package eip712 implements EIP-712 typed structured data: the type model,
// its canonical encoding and the signing digest built on top of it.
package eip712

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DomainType is the reserved struct name of the domain separator.
const DomainType = "EIP712Domain"

// ErrSchema is the sentinel every *SchemaError unwraps to.
var ErrSchema = errors.New("eip712: invalid typed data")

// SchemaError reports typed data that cannot be assembled or encoded.
type SchemaError struct {
	Type   string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("eip712: %s.%s: %s", e.Type, e.Field, e.Reason)
	}
	if e.Type != "" {
		return fmt.Sprintf("eip712: %s: %s", e.Type, e.Reason)
	}
	return "eip712: " + e.Reason
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// Type is a single named member of a struct type.
type Type struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Types maps struct names to their ordered member list.
type Types map[string][]Type

// Message is the value of a struct instance keyed by member name.
type Message map[string]any

// Domain holds the domain separator values. Unset members are left out of
// the EIP712Domain struct entirely.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract *common.Address
	Salt              *common.Hash
}

// Fields returns the EIP712Domain member list for the members that are set,
// in the order fixed by EIP-712.
func (d Domain) Fields() []Type {
	var fields []Type
	if d.Name != "" {
		fields = append(fields, Type{Name: "name", Type: "string"})
	}
	if d.Version != "" {
		fields = append(fields, Type{Name: "version", Type: "string"})
	}
	if d.ChainID != nil {
		fields = append(fields, Type{Name: "chainId", Type: "uint256"})
	}
	if d.VerifyingContract != nil {
		fields = append(fields, Type{Name: "verifyingContract", Type: "address"})
	}
	if d.Salt != nil {
		fields = append(fields, Type{Name: "salt", Type: "bytes32"})
	}
	return fields
}

// Message returns the domain as a struct value.
func (d Domain) Message() Message {
	m := Message{}
	if d.Name != "" {
		m["name"] = d.Name
	}
	if d.Version != "" {
		m["version"] = d.Version
	}
	if d.ChainID != nil {
		m["chainId"] = new(big.Int).Set(d.ChainID)
	}
	if d.VerifyingContract != nil {
		m["verifyingContract"] = *d.VerifyingContract
	}
	if d.Salt != nil {
		m["salt"] = *d.Salt
	}
	return m
}

// TypedData is a complete EIP-712 instance. Build it with New so that the
// schema and message are checked before anything is hashed.
type TypedData struct {
	Types       Types
	PrimaryType string
	Domain      Domain
	Message     Message
}

// New assembles typed data from an externally supplied schema and value.
// When types carries no EIP712Domain declaration one is derived from domain.
// The returned error is a *SchemaError when a referenced type is not
// declared or the message does not match its declaration.
func New(types Types, primaryType string, domain Domain, message Message) (*TypedData, error) {
	td := &TypedData{
		Types:       make(Types, len(types)+1),
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	}
	for name, fields := range types {
		td.Types[name] = append([]Type(nil), fields...)
	}
	if _, ok := td.Types[DomainType]; !ok {
		td.Types[DomainType] = domain.Fields()
	}

	if err := td.Validate(); err != nil {
		return nil, err
	}
	return td, nil
}

// Validate checks every declaration and the shape of the domain and message
// values against them. Value encodability is checked when hashing.
func (td *TypedData) Validate() error {
	if td.PrimaryType == "" {
		return &SchemaError{Reason: "primary type is empty"}
	}
	if _, ok := td.Types[td.PrimaryType]; !ok {
		return &SchemaError{Type: td.PrimaryType, Reason: "primary type is not declared"}
	}

	for name, fields := range td.Types {
		seen := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			if f.Name == "" {
				return &SchemaError{Type: name, Reason: "member with empty name"}
			}
			if _, dup := seen[f.Name]; dup {
				return &SchemaError{Type: name, Field: f.Name, Reason: "duplicate member"}
			}
			seen[f.Name] = struct{}{}

			base := baseType(f.Type)
			if _, declared := td.Types[base]; declared {
				continue
			}
			if !isAtomic(base) {
				return &SchemaError{Type: name, Field: f.Name, Reason: fmt.Sprintf("type %q is not declared", f.Type)}
			}
		}
	}

	if err := td.checkStruct(DomainType, td.Domain.Message()); err != nil {
		return err
	}
	return td.checkStruct(td.PrimaryType, td.Message)
}

// checkStruct verifies that value carries exactly the declared members of
// name, descending into nested struct values.
func (td *TypedData) checkStruct(name string, value Message) error {
	fields := td.Types[name]
	for _, f := range fields {
		v, ok := value[f.Name]
		if !ok {
			return &SchemaError{Type: name, Field: f.Name, Reason: "missing value"}
		}
		if err := td.checkValue(name, f, f.Type, v); err != nil {
			return err
		}
	}
	if len(value) > len(fields) {
		for key := range value {
			if !hasField(fields, key) {
				return &SchemaError{Type: name, Field: key, Reason: "value for undeclared member"}
			}
		}
	}
	return nil
}

func (td *TypedData) checkValue(owner string, f Type, typ string, v any) error {
	if elem, _, ok := parseArray(typ); ok {
		items, ok := toSlice(v)
		if !ok {
			return &SchemaError{Type: owner, Field: f.Name, Reason: fmt.Sprintf("expected array for %s", typ)}
		}
		for _, item := range items {
			if err := td.checkValue(owner, f, elem, item); err != nil {
				return err
			}
		}
		return nil
	}
	if _, isStruct := td.Types[typ]; isStruct {
		m, ok := toMessage(v)
		if !ok {
			return &SchemaError{Type: owner, Field: f.Name, Reason: fmt.Sprintf("expected struct value for %s", typ)}
		}
		return td.checkStruct(typ, m)
	}
	return nil
}

func hasField(fields []Type, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
