// Package asset finds the same-domain resources a page references and
// saves local copies of them.
//
// Work happens in two phases that both mutate the page's parse tree:
//
//  1. Discover selects img[src], link[href] and script[src] elements whose
//     reference points at the page's own host, and rewrites each reference
//     to the absolute asset URL.
//  2. Downloader.Download fetches every discovered asset, writes it into the
//     assets directory, and rewrites the reference again, this time to the
//     page-relative local path.
//
// Elements that reference other hosts are never touched.
package asset
