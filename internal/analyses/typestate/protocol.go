// Package typestate checks that values of protocol-bearing types (files,
// locks, connections: anything that must be opened before use and
// closed exactly once) are driven through their call sequence in a
// valid order. Each tracked variable is modeled as a small finite state
// machine; a call the current state does not accept, or a function
// that exits without ever reaching an accepting state, is reported.
package typestate

import "strings"

// state is one node in a Protocol's finite state machine.
type state string

// Protocol is a finite state machine over method-name calls for one
// class of resource-like type. transitions maps (state, methodSuffix)
// to the next state; methodSuffix is matched against the tail of a
// CallSite's method name so "os.File.Close" and "f.Close" both match
// the "Close" suffix.
type Protocol struct {
	Name        string
	TypeMatch   []string // substrings matched against a variable's TypeName/Name.
	Initial     state
	Accepting   map[state]bool
	Transitions map[state]map[string]state
}

// matchesType reports whether typeName or varName plausibly names a
// value this protocol governs.
func (p Protocol) matchesType(typeName, varName string) bool {
	for _, m := range p.TypeMatch {
		if strings.Contains(typeName, m) || strings.Contains(varName, m) {
			return true
		}
	}

	return false
}

// step applies a call whose method name is methodName from cur, returning
// the next state and whether the transition is defined.
func (p Protocol) step(cur state, methodName string) (state, bool) {
	table, ok := p.Transitions[cur]
	if !ok {
		return cur, false
	}

	for suffix, next := range table {
		if strings.HasSuffix(methodName, suffix) {
			return next, true
		}
	}

	return cur, false
}

// governs reports whether methodName names a transition this protocol
// cares about in ANY state, regardless of the current state. Used to
// distinguish an out-of-order protocol call (Close called twice, Read
// before Open) from an ordinary call that just isn't part of the
// protocol at all.
func (p Protocol) governs(methodName string) bool {
	for _, table := range p.Transitions {
		for suffix := range table {
			if strings.HasSuffix(methodName, suffix) {
				return true
			}
		}
	}

	return false
}

const (
	stateUnopened state = "unopened"
	stateOpen     state = "open"
	stateClosed   state = "closed"
	stateLocked   state = "locked"
	stateUnlocked state = "unlocked"
)

// builtinProtocols are the shipped resource lifecycle protocols: file
// and connection handles (open/read-or-write*/close) and mutex-like
// locks (lock/unlock, no reentry).
var builtinProtocols = []Protocol{
	{
		Name:      "file_handle",
		TypeMatch: []string{"File", "Conn", "Stream", "Reader", "Writer", "Client"},
		Initial:   stateUnopened,
		Accepting: map[state]bool{stateUnopened: true, stateClosed: true},
		Transitions: map[state]map[string]state{
			stateUnopened: {"Open": stateOpen, "Dial": stateOpen, "Connect": stateOpen},
			stateOpen: {
				"Read": stateOpen, "Write": stateOpen, "Scan": stateOpen,
				"Close": stateClosed,
			},
		},
	},
	{
		Name:      "mutex",
		TypeMatch: []string{"Mutex", "Lock", "RWLock", "Semaphore"},
		Initial:   stateUnlocked,
		Accepting: map[state]bool{stateUnlocked: true},
		Transitions: map[state]map[string]state{
			stateUnlocked: {"Lock": stateLocked, "RLock": stateLocked},
			stateLocked:   {"Unlock": stateUnlocked, "RUnlock": stateUnlocked},
		},
	},
}
