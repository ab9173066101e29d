// Package service implements the stateful parts of the reconciliation core
// and the label surface on top of the repository layer.
//
// DeviceRegistry is the single writer for the device table. SnapshotService
// appends topology graphs and serves snapshot reads. LabelService manages
// operator labels independently of the registry.
//
// All services publish to an EventBus, which cmd/lanwatch forwards to
// Server-Sent Events clients.
package service
