// Package adapter implements the source adapters that feed each poll cycle.
//
// Every adapter exposes plain fetch methods that return typed records or an
// error. Collect wraps a fetch in an Outcome: a failed or panicking source
// yields an empty record slice plus the error, so callers branch on
// Outcome.OK instead of recovering from arbitrary failures.
//
// # Sources
//
// UniFiClient reads wireless stations from a UniFi controller.
//
// SNMPPoller reads router interfaces from IF-MIB and neighbors from the
// LLDP-MIB remote table.
//
// RouterOSShell reads the same two views from a MikroTik router over SSH.
//
// NmapSweep runs a ping sweep and reports live hosts with their addresses.
// Its records refine the device registry only.
//
// # Registry
//
// Registry holds the configured source of each kind and collects all of them
// concurrently, each under its own timeout.
package adapter
