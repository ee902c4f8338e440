// Package storage provides the optional command audit log.
//
// Every command dispatched to the Restreamer (scheduled or manual) can be
// recorded here so an operator can reconstruct what the daemon did overnight.
// Storage failures are reported to the caller but are never fatal to dispatch.
package storage
