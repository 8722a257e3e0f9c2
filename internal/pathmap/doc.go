// Package pathmap derives thumbnail locations from source image locations.
//
// All functions are pure string transforms over cleaned paths; none of them
// touch the filesystem.
package pathmap
