package models

// Stats summarizes the manifest state for one managed root.
type Stats struct {
	TrackedFiles    int64
	TrackedDirs     int64
	TrackedSize     int64
	UnmodifiedFiles int64
	UnmodifiedSize  int64
	ModifiedFiles   int64
	ModifiedSize    int64
	MissingFiles    int64
}
