// Package service implements the per-profile connection service: the owner
// of one connection engine per remote device.
//
// Engines are created on the first event that references a device - a local
// connect request or an unsolicited remote indication - and destroyed when
// the engine reports itself cleanup-eligible after settling back into
// Disconnected. The service never mutates engine state directly; it only
// submits events and reads committed snapshots.
package service
