// Package fsutil holds Firestore helpers shared by the repositories.
package fsutil

import (
	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	metaCollection = "meta"
	countersDoc    = "counters"
)

// NextID allocates one id for collection from meta/counters.
func NextID(client *firestore.Client, tx *firestore.Transaction, collection string) (int64, error) {
	ids, err := NextIDs(client, tx, collection)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// NextIDs allocates one id per named collection with a single read and write
// of meta/counters. Firestore transactions require all reads before any
// write, so callers allocate after their own lookups and call this once.
func NextIDs(client *firestore.Client, tx *firestore.Transaction, collections ...string) ([]int64, error) {
	ref := client.Collection(metaCollection).Doc(countersDoc)

	snap, err := tx.Get(ref)
	if err != nil && status.Code(err) != codes.NotFound {
		return nil, err
	}

	ids := make([]int64, len(collections))
	updates := make(map[string]interface{}, len(collections))
	for i, name := range collections {
		next := int64(1)
		if err == nil {
			if raw, derr := snap.DataAt(name); derr == nil {
				if v, ok := raw.(int64); ok && v > 0 {
					next = v
				}
			}
		}
		ids[i] = next
		updates[name] = next + 1
	}
	if err := tx.Set(ref, updates, firestore.MergeAll); err != nil {
		return nil, err
	}
	return ids, nil
}
