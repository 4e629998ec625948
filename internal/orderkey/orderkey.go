// Package orderkey generates sort keys that can always be placed between two
// existing keys without renumbering their siblings.
//
// A key is a variable-length base-62 integer part followed by an optional
// base-62 fraction. The first byte of the integer part encodes its length:
// 'a'..'z' are non-negative integers of 1..26 digits, 'Z'..'A' are negative
// integers of 1..26 digits. The fraction never ends in '0'. Keys compare
// byte-wise, so they can be stored as plain text and sorted with a "C"
// collation.
package orderkey

import (
	"errors"
	"fmt"
	"strings"
)

const digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = len(digits)

// Key is an ordering key.
type Key string

// First is the key used when there is nothing to order against.
const First Key = "a0"

// smallestInteger is the lowest integer part; nothing can be decremented below it.
var smallestInteger = "A" + strings.Repeat("0", 26)

var (
	ErrInvalidKey   = errors.New("invalid order key")
	ErrOutOfOrder   = errors.New("lower order key must sort before upper")
	ErrKeyExhausted = errors.New("order key space exhausted")
)

func (k Key) String() string {
	return string(k)
}

// Ptr returns a pointer to k, for passing literal bounds to Between.
func (k Key) Ptr() *Key {
	return &k
}

// Compare orders two keys byte-wise.
func Compare(a, b Key) int {
	return strings.Compare(string(a), string(b))
}

// Valid reports whether k is a well-formed key.
func Valid(k Key) bool {
	return validate(string(k)) == nil
}

// Between returns a key strictly greater than lower and strictly less than
// upper. A nil bound means unbounded on that side. With both bounds nil it
// returns First.
func Between(lower, upper *Key) (Key, error) {
	if lower != nil {
		if err := validate(string(*lower)); err != nil {
			return "", err
		}
	}
	if upper != nil {
		if err := validate(string(*upper)); err != nil {
			return "", err
		}
	}
	if lower != nil && upper != nil && *lower >= *upper {
		return "", fmt.Errorf("%w: %q >= %q", ErrOutOfOrder, *lower, *upper)
	}

	switch {
	case lower == nil && upper == nil:
		return First, nil

	case lower == nil:
		b := string(*upper)
		ib := integerPart(b)
		fb := b[len(ib):]
		if ib == smallestInteger {
			m, err := midpoint("", fb, true)
			if err != nil {
				return "", err
			}
			return Key(ib + m), nil
		}
		if ib < b {
			return Key(ib), nil
		}
		res, ok := decrementInteger(ib)
		if !ok {
			return "", ErrKeyExhausted
		}
		return Key(res), nil

	case upper == nil:
		a := string(*lower)
		ia := integerPart(a)
		fa := a[len(ia):]
		if i, ok := incrementInteger(ia); ok {
			return Key(i), nil
		}
		m, err := midpoint(fa, "", false)
		if err != nil {
			return "", err
		}
		return Key(ia + m), nil
	}

	a, b := string(*lower), string(*upper)
	ia, ib := integerPart(a), integerPart(b)
	fa, fb := a[len(ia):], b[len(ib):]
	if ia == ib {
		m, err := midpoint(fa, fb, true)
		if err != nil {
			return "", err
		}
		return Key(ia + m), nil
	}
	i, ok := incrementInteger(ia)
	if !ok {
		return "", ErrKeyExhausted
	}
	if i < b {
		return Key(i), nil
	}
	m, err := midpoint(fa, "", false)
	if err != nil {
		return "", err
	}
	return Key(ia + m), nil
}

// MustBetween is Between for callers whose bounds come from keys the package
// produced itself. It panics on error.
func MustBetween(lower, upper *Key) Key {
	k, err := Between(lower, upper)
	if err != nil {
		panic(err)
	}
	return k
}

// After returns a key greater than k with room above it.
func After(k Key) (Key, error) {
	return Between(&k, nil)
}

// Before returns a key less than k with room below it.
func Before(k Key) (Key, error) {
	return Between(nil, &k)
}

// midpoint returns a fraction strictly between a and b. An empty a means zero;
// hasUpper false means b is one (unbounded fraction).
func midpoint(a, b string, hasUpper bool) (string, error) {
	if hasUpper && a >= b {
		return "", fmt.Errorf("%w: fraction %q >= %q", ErrOutOfOrder, a, b)
	}
	if strings.HasSuffix(a, "0") || (hasUpper && strings.HasSuffix(b, "0")) {
		return "", fmt.Errorf("%w: trailing zero", ErrInvalidKey)
	}

	if hasUpper {
		n := 0
		for n < len(b) && digitAt(a, n) == b[n] {
			n++
		}
		if n > 0 {
			rest := ""
			if n < len(a) {
				rest = a[n:]
			}
			m, err := midpoint(rest, b[n:], true)
			if err != nil {
				return "", err
			}
			return b[:n] + m, nil
		}
	}

	digitA := 0
	if a != "" {
		digitA = strings.IndexByte(digits, a[0])
	}
	digitB := base
	if hasUpper {
		digitB = strings.IndexByte(digits, b[0])
	}
	if digitB-digitA > 1 {
		return string(digits[(digitA+digitB+1)/2]), nil
	}
	if hasUpper && len(b) > 1 {
		return b[:1], nil
	}
	rest := ""
	if len(a) > 1 {
		rest = a[1:]
	}
	m, err := midpoint(rest, "", false)
	if err != nil {
		return "", err
	}
	return string(digits[digitA]) + m, nil
}

func digitAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return digits[0]
}

func integerLength(head byte) (int, bool) {
	switch {
	case head >= 'a' && head <= 'z':
		return int(head-'a') + 2, true
	case head >= 'A' && head <= 'Z':
		return int('Z'-head) + 2, true
	}
	return 0, false
}

func integerPart(k string) string {
	n, _ := integerLength(k[0])
	return k[:n]
}

func validate(k string) error {
	if k == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if k == smallestInteger {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k)
	}
	n, ok := integerLength(k[0])
	if !ok || len(k) < n {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k)
	}
	for i := 1; i < len(k); i++ {
		if strings.IndexByte(digits, k[i]) < 0 {
			return fmt.Errorf("%w: %q", ErrInvalidKey, k)
		}
	}
	if strings.HasSuffix(k[n:], "0") {
		return fmt.Errorf("%w: %q has a trailing zero", ErrInvalidKey, k)
	}
	return nil
}

func incrementInteger(x string) (string, bool) {
	head := x[0]
	digs := []byte(x[1:])
	carry := true
	for i := len(digs) - 1; carry && i >= 0; i-- {
		d := strings.IndexByte(digits, digs[i]) + 1
		if d == base {
			digs[i] = digits[0]
		} else {
			digs[i] = digits[d]
			carry = false
		}
	}
	if !carry {
		return string(head) + string(digs), true
	}
	if head == 'Z' {
		return "a" + string(digits[0]), true
	}
	if head == 'z' {
		return "", false
	}
	h := head + 1
	if h > 'a' {
		digs = append(digs, digits[0])
	} else {
		digs = digs[:len(digs)-1]
	}
	return string(h) + string(digs), true
}

func decrementInteger(x string) (string, bool) {
	head := x[0]
	digs := []byte(x[1:])
	borrow := true
	for i := len(digs) - 1; borrow && i >= 0; i-- {
		d := strings.IndexByte(digits, digs[i]) - 1
		if d == -1 {
			digs[i] = digits[base-1]
		} else {
			digs[i] = digits[d]
			borrow = false
		}
	}
	if !borrow {
		return string(head) + string(digs), true
	}
	if head == 'a' {
		return "Z" + string(digits[base-1]), true
	}
	if head == 'A' {
		return "", false
	}
	h := head - 1
	if h < 'Z' {
		digs = append(digs, digits[base-1])
	} else {
		digs = digs[:len(digs)-1]
	}
	return string(h) + string(digs), true
}
