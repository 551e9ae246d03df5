// Package hcl_adapter reads an assetgrid configuration document written in
// HCL native syntax or in HCL's JSON syntax and translates it into the
// format-agnostic config.Document.
//
// The JSON syntax accepts the historical `.gulpconfig.json` layout as-is:
// a `settings` object and one array of `{src, dest, watch, id}` objects per
// asset class.
package hcl_adapter
