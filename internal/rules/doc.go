// Package rules loads the rule table routing svn paths to git repositories.
//
// A rule file is TOML and declares destination repositories and match
// rules:
//
//	[[repository]]
//	name = "project"
//
//	[[match]]
//	path = "/trunk/"
//	repository = "project"
//	branch = "master"
//
//	[[match]]
//	path = "/branches/([^/]+)/"
//	repository = "project"
//	branch = "$1"
//
//	[[match]]
//	path = "/tags/([^/]+)/"
//	repository = "project"
//	branch = "refs/tags/$1"
//	annotated = true
//
//	[[match]]
//	path = "/"
//	action = "ignore"
//
// # Matching
//
// A match rule's path is a regular expression anchored at the start of the
// svn path. Directory paths are matched with a trailing slash. Rules are
// tried in file order, files in the order given; the first rule whose
// revision bounds include the revision and whose expression matches wins.
// The unmatched remainder of the path, with the rule's prefix prepended,
// becomes the path inside the branch.
//
// # Actions
//
//   - export: route the change to repository and branch (default)
//   - ignore: drop the change
//   - recurse: for copied directories, match each contained file on its own
package rules
