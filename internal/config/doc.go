// Package config provides the configuration of a pageloader invocation.
//
// Settings come from command-line flags, with per-host request settings
// (headers, cookies, user agents) read from an optional YAML file named
// .pageloader. The file is searched for in the current directory, the home
// directory and then the XDG config directory.
package config
