// Package inlay defines the data model of the inlay hint cache: hint kinds and content,
// anchors into a buffer's edit history, cache ids, and the splices handed to the view.
//
// The cache itself lives in package cache, the fetch coordinator in package fetch.
package inlay
