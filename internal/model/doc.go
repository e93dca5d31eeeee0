// Package model contains the media item and preview table data structures.
package model
