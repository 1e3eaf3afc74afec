// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

// State - progress of one bundle through the coordinator
type State byte

// possible states for a bundle
const (
	Received   = State('R')
	Resolving  = State('S')
	Validating = State('V')
	Encoding   = State('E')
	Committing = State('C')
	Committed  = State('D')
	Aborted    = State('A')
)

// CanChangeTo - true if the transition is allowed
//
// every state before Committed may abort, the two terminal states
// never change
func (state State) CanChangeTo(newState State) bool {

	// exclude change to same state
	if state == newState {
		return false
	}

	switch state {
	case Received:
		return Resolving == newState || Aborted == newState

	case Resolving:
		return Validating == newState || Aborted == newState

	case Validating:
		return Encoding == newState || Aborted == newState

	case Encoding:
		return Committing == newState || Aborted == newState

	case Committing:
		return Committed == newState || Aborted == newState

	default:
		return false
	}
}

// IsTerminal - Committed or Aborted
func (state State) IsTerminal() bool {
	return Committed == state || Aborted == state
}

func (state State) String() string {
	s := "?"
	switch state {
	case Received:
		s = "Received"
	case Resolving:
		s = "Resolving"
	case Validating:
		s = "Validating"
	case Encoding:
		s = "Encoding"
	case Committing:
		s = "Committing"
	case Committed:
		s = "Committed"
	case Aborted:
		s = "Aborted"
	default:
	}
	return s
}

// MarshalJSON - convert a state to text for JSON
func (state State) MarshalJSON() ([]byte, error) {
	s, err := state.MarshalText()
	if nil != err {
		return nil, err
	}

	return []byte(`"` + string(s) + `"`), nil
}

// MarshalText - convert state to text
func (state State) MarshalText() ([]byte, error) {
	return []byte(state.String()), nil
}
