// Package build provides the canonical build pipeline of the campus site.
//
// A build loads previews of every kind, enumerates the routes, assembles
// and writes the data of each page as <out>/<route>/index.json, writes
// sitemap.xml and optionally uploads the search records. Any resolution
// failure aborts the build; the search upload never does.
package build
