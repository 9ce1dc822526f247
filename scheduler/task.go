package scheduler

import "github.com/Quuxplusone/KnuthElevator/simtime"

// Label is the resumption point of a task: the step it will execute when it
// next wakes up.
type Label int

// Entry is the scheduling record of a task. Types embed it to become
// schedulable; identity is the address of the embedded Entry.
type Entry struct {
	label Label
	wake  simtime.Time
}

// NewEntry returns a record that starts at label without being scheduled.
func NewEntry(label Label) Entry {
	return Entry{label: label, wake: -1}
}

func (e *Entry) Label() Label {
	return e.label
}

func (e *Entry) WakeTime() simtime.Time {
	return e.wake
}

func (e *Entry) entry() *Entry {
	return e
}

// Task is anything that embeds an Entry.
type Task interface {
	Label() Label
	WakeTime() simtime.Time
	entry() *Entry
}
