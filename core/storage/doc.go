// Package storage wraps the MinIO client used to read device snapshots and
// archive run reports.
//
// The Client interface abstracts the provider so it can be mocked (see
// core/storage/mocks). GetJSON, PutJSON and ListKeys cover the JSON
// documents netsync exchanges with the bucket; EnsureBucket creates the
// bucket on first use.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.GetJSON(ctx, client, cfg.Storage.Bucket, "snapshots/sw1.json", &snap)
package storage
