// Package registry holds the task descriptors of one build plan.
//
// Every buildable unit is registered once as a named Task carrying its
// function and its dependencies. Aggregates ("css", "js", "img", "build",
// "all") are not tasks: they are named predicates that select a set of tasks
// which the executor then runs together with their dependencies.
package registry
