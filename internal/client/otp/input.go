// Package otp models the six-slot one-time code entry.
//
// Each slot holds at most one digit. Typing a digit moves focus forward,
// backspace on an empty slot moves it back, and the code is always read as
// the concatenation of all six slots.
package otp

import "errors"

// Length is the number of digits in a one-time code.
const Length = 6

// ErrInvalidCode reports a code that is not exactly six digits.
var ErrInvalidCode = errors.New("invalid one-time code")

// Validate accepts exactly Length ASCII digits.
func Validate(code string) error {
	if len(code) != Length {
		return ErrInvalidCode
	}
	for i := 0; i < len(code); i++ {
		if !isDigit(code[i]) {
			return ErrInvalidCode
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Input is the state of the six slots and the focused slot.
// The zero value is an empty input focused on the first slot.
type Input struct {
	slots [Length]byte
	focus int
}

// Set writes value into slot index. Only the last character of value is
// kept and it must be a digit; an empty value clears the slot. Focus
// advances after a digit unless index is the last slot.
func (in *Input) Set(index int, value string) {
	if index < 0 || index >= Length {
		return
	}
	if value == "" {
		in.slots[index] = 0
		in.focus = index
		return
	}
	c := value[len(value)-1]
	if !isDigit(c) {
		return
	}
	in.slots[index] = c
	if index < Length-1 {
		in.focus = index + 1
	} else {
		in.focus = index
	}
}

// Backspace handles the key on slot index: a filled slot is cleared, an
// empty one moves focus to the previous slot.
func (in *Input) Backspace(index int) {
	if index < 0 || index >= Length {
		return
	}
	if in.slots[index] != 0 {
		in.slots[index] = 0
		in.focus = index
		return
	}
	if index > 0 {
		in.focus = index - 1
	}
}

// Fill types code into the slots from the first one, skipping non-digits.
// Slots beyond the typed digits are cleared.
func (in *Input) Fill(code string) {
	in.Reset()
	i := 0
	for j := 0; j < len(code) && i < Length; j++ {
		if !isDigit(code[j]) {
			continue
		}
		in.Set(i, string(code[j]))
		i++
	}
}

func (in *Input) Reset() {
	*in = Input{}
}

// Focus is the index of the slot that receives the next digit.
func (in *Input) Focus() int { return in.focus }

// Slot returns the digit in slot index, or "" when it is empty.
func (in *Input) Slot(index int) string {
	if index < 0 || index >= Length || in.slots[index] == 0 {
		return ""
	}
	return string(in.slots[index])
}

// Code concatenates every slot. Empty slots contribute nothing, so an
// incomplete input yields fewer than Length digits and fails Validate.
func (in *Input) Code() string {
	b := make([]byte, 0, Length)
	for _, c := range in.slots {
		if c != 0 {
			b = append(b, c)
		}
	}
	return string(b)
}

func (in *Input) Complete() bool {
	for _, c := range in.slots {
		if c == 0 {
			return false
		}
	}
	return true
}
