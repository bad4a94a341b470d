package montaze

import "embed"

// EmbeddedAssets contains static assets shipped with the server:
// dashboard.css for the admin pages.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
