// Package generate builds an ImageContentSourcePolicy from an image mapping
// file.
//
// A mapping file holds one "source=destination" image pair per line, the
// format consumed by "oc image mirror". Every source image's repository is
// mirrored to the same repository path under an offline registry.
package generate
