// Package platform provides filesystem and OS integration helpers.
package platform
