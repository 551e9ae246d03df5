// Package runner wraps every task invocation so that a returned error or a
// panic is turned into a Result instead of propagating. A failing task is
// logged and reported; it never takes its siblings or a watch session down.
package runner
