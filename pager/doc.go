// Package pager implements a user-space demand-paging manager: it services
// page faults on behalf of a host MMU collaborator, backs pages with a fixed
// pool of physical frames and a fixed pool of disk-like blocks, and evicts
// frames using a second-chance (clock) policy when none are free.
//
// The original design assumes a kernel-adjacent MMU that the pager drives
// through six primitives (install a resident mapping, revoke one, change
// protection, read/write a block, zero-fill a frame) operating on a flat
// physical-memory array. This package keeps that shape intact as the [MMU]
// interface and a `[]byte` physical memory slice, so a host — real or, in
// tests, fake — supplies the mechanism while Pager supplies the policy.
package pager
