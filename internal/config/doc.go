// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from a
// document on disk.
//
// The `config.Document` is the single input of the `plan` package. Concrete
// loaders, such as the HCL one, live in separate packages.
package config
