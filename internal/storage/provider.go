// Package storage defines the vault file-system abstraction.
package storage

// Provider is the interface for vault file operations.
type Provider interface {
	// Root returns the absolute path of the vault root.
	Root() string
	// List returns every file under the vault root matching pattern,
	// relative to the root and lexicographically sorted.
	List(pattern string) ([]string, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Backup copies the file at path to path+".bak".
	Backup(path string) error
}
