// Package dag executes registered tasks as a directed acyclic graph.
//
// The requested tasks and everything they depend on are collected into a
// Graph, checked for cycles and then run on a bounded worker pool. A task
// starts as soon as all of its dependencies have succeeded. When a task
// fails, every task downstream of it is skipped with ErrSkipped; unrelated
// tasks keep running. Each task ends up with exactly one runner.Result.
package dag
