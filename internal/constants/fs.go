// Package constants holds values shared by several packages.
package constants

import "os"

const (
	// DefaultFilePermissions sets the default permissions for regular files: (rw-------).
	// Cookie files hold credentials, so only the owner may read them.
	DefaultFilePermissions os.FileMode = 0o600

	// DefaultFolderPermissions sets the default permissions for regular folders: (rwx------).
	DefaultFolderPermissions os.FileMode = 0o700

	// OutputFilePermissions is used for response bodies saved by the CLI: (rw-r--r--).
	OutputFilePermissions os.FileMode = 0o644
)

const (
	// ExtensionYAML is the extension of persisted partition files.
	ExtensionYAML = ".yaml"
	// PartitionsFolder is the folder under the data directory holding persisted partitions.
	PartitionsFolder = "partitions"
)
