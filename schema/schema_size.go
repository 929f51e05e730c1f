// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package schema

import (
	"fmt"
	"math"
	"math/big"
	"slices"
)

// BitSize returns the minimal number of bits needed to encode the type.
// Wrappers take priority, then a bound definition, then the physical kind.
func (t *FieldType) BitSize() (uint32, error) {
	return t.bitSize(&sizeWalk{})
}

func (t *FieldType) bitSize(w *sizeWalk) (uint32, error) {
	if t.array != nil {
		return t.array.BitSize()
	}
	if t.str != nil {
		return t.str.BitSize()
	}
	if t.resolved != nil {
		return t.resolved.bitSize(w)
	}

	switch t.kind {
	case PhysicalKind_BOOL:
		return 1, nil
	case PhysicalKind_UINT:
		rng := t.EffectiveRange()
		if rng == nil || rng.real {
			return 0, errUnresolvedSize(t.typeName)
		}
		return uint32(rng.intEnd.BitLen()), nil
	case PhysicalKind_INT:
		rng := t.EffectiveRange()
		if rng == nil || rng.real {
			return 0, errUnresolvedSize(t.typeName)
		}
		return signedBits(rng.intBegin, rng.intEnd)
	case PhysicalKind_FLOAT:
		return 32, nil
	case PhysicalKind_DOUBLE:
		return 64, nil
	case PhysicalKind_STRING, PhysicalKind_UNRESOLVED:
		return 0, errUnresolvedSize(t.typeName)
	}
	panic("unreachable")
}

// sizeWalk is the chain of definitions whose sizes are being computed.
type sizeWalk struct {
	path []string
}

func (w *sizeWalk) enter(typeName string) error {
	if idx := slices.Index(w.path, typeName); idx >= 0 {
		cycle := append(slices.Clone(w.path[idx:]), typeName)
		return errCyclicSize(cycle)
	}
	w.path = append(w.path, typeName)
	return nil
}

func (w *sizeWalk) leave() {
	w.path = w.path[:len(w.path)-1]
}

// checkedBits narrows a size to uint32.
func checkedBits(what string, bits uint64) (uint32, error) {
	if bits > math.MaxUint32 {
		return 0, errSizeOverflow(what, bits)
	}
	return uint32(bits), nil
}

// StorageBits returns the POSIX storage width of an integer type, or 0 for
// kinds that are not stored as a plain integer.
func (t *FieldType) StorageBits() (uint32, error) {
	if t.array != nil || t.str != nil {
		return 0, nil
	}
	if t.resolved != nil {
		leaf, err := aliasedType(t)
		if err != nil || leaf == nil {
			return 0, err
		}
		return leaf.StorageBits()
	}
	switch t.kind {
	case PhysicalKind_UINT, PhysicalKind_INT:
		bits, err := t.BitSize()
		if err != nil {
			return 0, err
		}
		return StorageBits(bits), nil
	case PhysicalKind_BOOL:
		return 8, nil
	case PhysicalKind_FLOAT:
		return 32, nil
	case PhysicalKind_DOUBLE:
		return 64, nil
	}
	return 0, nil
}

func signedBits(begin, end *big.Int) (uint32, error) {
	for _, name := range signedWidths {
		alias := posixAliases[name]
		if begin.Cmp(alias.rng.intBegin) >= 0 && end.Cmp(alias.rng.intEnd) <= 0 {
			return alias.bits, nil
		}
	}
	return 0, errIntOutOfStdint(begin.String(), end.String())
}

// aliasedType follows a chain of simple definitions from a bound reference
// to the first type that is not itself bound to one. It returns nil when
// the chain ends at a SEQUENCE, CHOICE or ENUMERATED.
func aliasedType(t *FieldType) (*FieldType, error) {
	var seen []string
	for t.resolved != nil {
		simple, ok := t.resolved.(*SimpleDefinition)
		if !ok {
			return nil, nil
		}
		if slices.Contains(seen, simple.typeName) {
			return nil, errCyclicSize(append(seen, simple.typeName))
		}
		seen = append(seen, simple.typeName)
		t = simple.fieldType
	}
	return t, nil
}

// BitSize of an array is count*8, independent of the element type.
//
// TODO: use count*element bit size once backends stop relying on the
// byte-per-element layout.
func (a *Array) BitSize() (uint32, error) {
	return checkedBits(fmt.Sprintf("array of %d elements", a.count), uint64(a.count)*8)
}

func (s *FixedString) BitSize() (uint32, error) {
	return checkedBits(fmt.Sprintf("string of %d bytes", s.length), uint64(s.length)*8)
}
