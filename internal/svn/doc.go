// Package svn reads subversion history from an svnadmin dump stream and
// routes every revision into the destination repositories.
//
// A source is either a dump file or a repository directory, which is dumped
// once into a temporary file. Open indexes the whole dump: revision
// properties, node headers and the offsets of file contents, plus a
// copy-on-write tree per revision so directory copies can be expanded into
// the files they contain. File contents stay on disk until they are
// exported.
//
// The dump grammar, as produced by svnadmin dump without --deltas:
//
//	revision   -> "Revision-number: " digits NL headers NL props
//	node       -> "Node-path: " path NL headers NL [props] [text]
//	headers    -> ("Key: value" NL)*
//	props      -> ("K " len NL key NL "V " len NL value NL)* "PROPS-END" NL
//
// Content-length covers props and text together; Prop-content-length and
// Text-content-length split it. Deltified dumps are rejected.
package svn
