// Package storage defines the string key/value capability credentials are
// persisted in, plus its backends.
package storage

// Store is a string key/value store. Implementations must be safe for
// concurrent use. Backends that can fail log the failure and behave as if
// the key were absent.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}
