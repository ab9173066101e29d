// Package domain defines the core types shared by the lanwatch poller.
//
// It has no database or network dependencies.
//
// # Records
//
// Source adapters report typed records: WirelessClient from the wireless
// controller, WiredInterface from the router, NeighborRecord from LLDP-style
// neighbor discovery and SweepHost from an active host sweep. Each of the
// device-bearing types converts to the uniform Record shape that the
// normalizer and device registry consume.
//
// # Registry
//
// Device is the registry entity keyed by lowercase hardware address. Label is
// the operator annotation attached to a device.
//
// # Topology
//
// Graph holds the nodes and edges built for one poll cycle. Snapshot is the
// persisted, immutable form of a Graph.
package domain
