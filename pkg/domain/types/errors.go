package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrVersionNotFound means the podspec has no version declaration
	ErrVersionNotFound = goerr.New("version declaration not found")
	// ErrVersionMismatch means the podspec version differs from the release version
	ErrVersionMismatch = goerr.New("version mismatch")
	// ErrToolNotFound means a required executable is not on the search path
	ErrToolNotFound = goerr.New("required tool not found")
	// ErrCommandFailed means an external command exited with a non-zero status
	ErrCommandFailed = goerr.New("command failed")
	// ErrPublishTimeout means the published version never became available
	ErrPublishTimeout = goerr.New("published version did not become available")
	// ErrStringsInvalid means one or more .strings files break the content rules
	ErrStringsInvalid = goerr.New("invalid strings files")
	// ErrAnchorConflict means the changelog already holds the placeholder anchor
	ErrAnchorConflict = goerr.New("changelog already contains the placeholder anchor")
	// ErrAnchorNotFound means no line of the file equals the anchor
	ErrAnchorNotFound = goerr.New("anchor not found")
	// ErrSyncFailed means at least one downstream repository failed to sync
	ErrSyncFailed = goerr.New("downstream sync failed")
)
