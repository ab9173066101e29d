// Package repository defines the data access interfaces for lanwatch.
//
// The sqlite subpackage implements them. It owns three tables:
//
// - devices: the device registry keyed by lowercase hardware address
// - labels: operator annotations, cascaded when a device is deleted
// - topology_snapshots: the append-only log of topology graphs
//
// Snapshots are immutable. The store exposes no update or delete for them,
// and the schema rejects both with triggers.
package repository
