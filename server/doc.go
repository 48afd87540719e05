// Package server exposes the search engine over HTTP. Handlers are thin
// JSON adapters over search.Engine; no search logic lives here.
package server
