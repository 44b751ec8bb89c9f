package version

// Version is the current rolodex release.
var Version = "0.3.0"
