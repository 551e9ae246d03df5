// Package plan turns a loaded config.Document into an immutable BuildPlan.
//
// Normalization runs in a fixed order: smart discovery of convention
// directories, probing of every configured source path, expansion of script
// directories into one entry per file, identifier assignment, and finally
// the derivation of the uniform TaskSpec list that the registry consumes.
// A BuildPlan is never modified after Normalize returns; every component
// downstream shares it by pointer.
package plan
