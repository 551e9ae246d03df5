// Package transform runs the external tools that turn asset sources into
// build artifacts: the style compiler, the script bundler, the script linter
// and the image optimizers.
//
// Every tool is a command template. The defaults can be replaced per tool
// with a `tool` block in the configuration document; placeholders such as
// {src} and {out} are substituted per invocation.
package transform
