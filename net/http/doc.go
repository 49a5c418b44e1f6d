// Package http exposes the vault ledger over Fiber.
//
// Core entry points are NewVaultHandler, which serializes access to a
// ledger.Ledger for concurrent requests, NewApp, which wires the route table,
// and RenderError, which maps typed ledger errors onto HTTP statuses. The
// caller identity for every operation is taken from the X-Caller-Id header
// and trusted as authoritative.
package http
