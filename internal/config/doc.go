// Package config loads elmls.toml.
//
//	[project]
//	source_dirs = ["src"]
//
//	[diagnostics]
//	max = 100
//	disabled = ["unnecessary_parens"]
//
//	[trace]
//	level = "request"
//	output = "elmls-trace.ndjson"
//
//	[cache]
//	enabled = true
//	dir = ".elmls-cache"
package config
