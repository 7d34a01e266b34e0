// Package manifest defines the ImageContentSourcePolicy document model and
// its YAML codec.
//
// A [Document] is one decoded YAML document as it appeared in a file or in a
// cluster listing, kept whole so it can be backed up verbatim. A [Manifest]
// is the typed view of the fields the merge consumes: the envelope and the
// spec.repositoryDigestMirrors rules.
package manifest
