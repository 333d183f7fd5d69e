package pager

import "errors"

var (
	// ErrNoBlocks is returned by Extend when no free backing block remains.
	// It is the typed equivalent of the original design's "return null, no
	// errno set" on block exhaustion.
	ErrNoBlocks = errors.New("pager: no free blocks")

	// ErrInvalidRange is returned by Syslog when any byte of the requested
	// range lies outside pages the pid has allocated via Extend.
	ErrInvalidRange = errors.New("pager: range not allocated")

	// ErrUnknownPID is returned when an entry point is called for a pid with
	// no registered page table. The original design treats this as a fatal
	// programming error; this port returns it instead of panicking so a host
	// can decide how to handle a misbehaving caller.
	ErrUnknownPID = errors.New("pager: unknown pid")

	// ErrPIDExists is returned by Create when pid already has a page table.
	ErrPIDExists = errors.New("pager: pid already registered")
)
