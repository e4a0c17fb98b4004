// Package workspace keeps the parsed and checked documents of a project.
// Disk files are loaded once; editor buffers replace them while open.
// Every change rechecks the workspace so cross-module types stay current.
package workspace
