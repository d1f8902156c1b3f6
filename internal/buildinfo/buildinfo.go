package buildinfo

// Version is set at build time via -ldflags "-X .../internal/buildinfo.Version=...".
var Version = "dev"
