package config

// Version contains hackdesk build version.
//
// Overridden on build time using ldflags.
var Version = "development"
