// Package utils provides loose value conversion and key normalization helpers
// shared by the Excel parser, the Scopus normalizer and the identity match keys.
package utils
