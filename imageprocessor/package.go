// Package imageprocessor decodes page images and reduces them to perceptual
// fingerprints.
//
// Decoding goes through an ImageLoaderRegistry that identifies the format from
// the file content, not the extension. Fingerprints are produced by a Hasher
// built once from a HasherConfig; every page of a run must be hashed with the
// same configuration for distances to be meaningful.
package imageprocessor
