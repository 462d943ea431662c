// Package devicesync reconciles the collected state of network devices
// against the system of record.
//
// A run takes one device Snapshot and drives every entity kind through
// compare and execute in dependency order: the device, its VLANs,
// interfaces, IP addresses, inventory, MAC table and finally the cables to
// its neighbors. Each kind is bound to the remote store by an Adapter that
// normalizes the local records, projects the remote objects into the same
// shape and builds the payloads. All adapters of a run share one Lookup
// Cache.
//
// The device is the scope of a run. When it cannot be found or created the
// run is aborted before any other kind is touched.
//
// A dry run executes the same stages over a remote.DryRunStore, so its
// report lists exactly what a live run would do.
//
// The feature exposes the runs over HTTP:
//
//	GET  /sync/devices
//	POST /sync/:device?dry_run=true
//	GET  /sync/:device/preview
//	POST /sync?dry_run=true
package devicesync
