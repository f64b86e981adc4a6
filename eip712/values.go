package eip712

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// encodeAtomic encodes a value of an atomic type into a single 32-byte word.
func encodeAtomic(typ string, v any) ([]byte, error) {
	switch typ {
	case "string":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return crypto.Keccak256([]byte(s)), nil

	case "bytes":
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		return crypto.Keccak256(b), nil

	case "address":
		addr, err := toAddress(v)
		if err != nil {
			return nil, err
		}
		return common.LeftPadBytes(addr.Bytes(), 32), nil

	case "bool":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		word := make([]byte, 32)
		if b {
			word[31] = 1
		}
		return word, nil
	}

	if size, ok := bytesSize(typ); ok {
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) > size {
			return nil, fmt.Errorf("%d bytes do not fit %s", len(b), typ)
		}
		return common.RightPadBytes(b, 32), nil
	}

	if bits, signed, ok := intSize(typ); ok {
		x, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		if err := checkIntRange(x, bits, signed); err != nil {
			return nil, fmt.Errorf("%s: %w", typ, err)
		}
		return math.U256Bytes(new(big.Int).Set(x)), nil
	}

	return nil, fmt.Errorf("unsupported type %q", typ)
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a == nil {
			return common.Address{}, errors.New("nil address")
		}
		return *a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("invalid address %q", a)
		}
		return common.HexToAddress(a), nil
	default:
		return common.Address{}, fmt.Errorf("expected address, got %T", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case common.Hash:
		return b.Bytes(), nil
	case [32]byte:
		return b[:], nil
	case hexutil.Bytes:
		return b, nil
	case string:
		decoded, err := hexutil.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes %q: %w", b, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("expected bytes, got %T", v)
	}
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil integer")
		}
		return n, nil
	case *math.HexOrDecimal256:
		if n == nil {
			return nil, errors.New("nil integer")
		}
		return (*big.Int)(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		f := big.NewFloat(n)
		if !f.IsInt() {
			return nil, fmt.Errorf("non-integer number %v", n)
		}
		x, _ := f.Int(nil)
		return x, nil
	case json.Number:
		return parseInteger(n.String())
	case string:
		return parseInteger(n)
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

// parseInteger accepts decimal or 0x-prefixed hex text.
func parseInteger(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("empty integer")
	}
	x, ok := math.ParseBig256(s)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return x, nil
}

func checkIntRange(x *big.Int, bits int, signed bool) error {
	if !signed {
		if x.Sign() < 0 {
			return errors.New("negative value for unsigned type")
		}
		if x.BitLen() > bits {
			return errors.New("value overflows type")
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	lowest := new(big.Int).Neg(limit)
	if x.Cmp(lowest) < 0 || x.Cmp(limit) >= 0 {
		return errors.New("value overflows type")
	}
	return nil
}

func toMessage(v any) (Message, bool) {
	switch m := v.(type) {
	case Message:
		return m, true
	case map[string]any:
		return Message(m), true
	default:
		return nil, false
	}
}

func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// []byte belongs to the bytes types, never to arrays.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
