// Package main provides the entry point for the pageloader CLI.
//
// pageloader saves a single web page for offline viewing: the page goes to
// "<name>.html" and its same-domain images, stylesheets and scripts to
// "<name>_files/".
//
// Usage:
//
//	pageloader [flags] <url>
//	pageloader -o /var/tmp https://ru.hexlet.io/courses
//	pageloader history
//
// See --help for all available options.
package main

// main is the entry point for pageloader.
func main() {
	Execute()
}
