// Package registry provides the central "glue" for the module system.
//
// The Registry maps the stage names used on the command line and in the
// config file (e.g., "install", "compile") to the compiled Go factories that
// build those stages. Modules add themselves through Module.Register.
//
// During application startup, the registry is populated and then validated
// against the config file so a misspelled stage section is reported before
// any package is touched.
package registry
