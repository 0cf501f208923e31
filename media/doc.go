// Package media provides access to stored photo and video content.
//
// A Store resolves the file references carried by media items into raw
// bytes for analysis. FSStore serves content from a directory root,
// MemStore serves content from memory and is intended for tests.
package media
