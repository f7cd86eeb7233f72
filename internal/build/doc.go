// Package build turns a route tree into static pages.
//
// A build runs in two phases. Discovery expands every route pattern into
// concrete pages by calling the configured resolvers, resolves each page's
// template (following redirects) and computes its digest; nothing is written
// yet. The write phase then flushes the surviving page writes through a
// bounded pool. Any error in either phase aborts the whole build.
//
// Engine.BuildSite builds the whole forest to disk. Engine.BuildRoute renders
// the one page behind a concrete path into memory.
package build
