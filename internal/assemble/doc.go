// Package assemble creates the output package: the directory layout,
// retained native metadata, original-as-is tarballs, the checksum
// manifest, and the package log.
//
// Assembly is fail-fast about its destination: an existing package
// directory refuses to proceed rather than risking a partial
// overwrite, and a General-profile card with colliding basenames
// aborts before any audiovisual content is copied.
package assemble
