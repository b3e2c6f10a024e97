package repositories

import "context"

// BlobStorage abstracts the remote object store holding finished
// recordings. Implementations are stateless request issuers and safe to
// share across concurrent sessions.
type BlobStorage interface {
	// Upload copies the file at localPath to the remote store under key
	// and returns an addressable locator for it. A single attempt; retry
	// policy, if any, belongs to the caller.
	Upload(ctx context.Context, localPath string, key string) (locator string, err error)
	// Delete removes a previously uploaded object by key.
	Delete(ctx context.Context, key string) error
}
