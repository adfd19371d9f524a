// Package fileutil provides file writing helpers shared by exporters and the
// configuration writer.
package fileutil
