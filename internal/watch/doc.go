// Package watch turns a build plan into file-change triggers and runs the
// matching tasks when sources change.
//
// Plan computes the WatchGroups once: each group has a glob trigger and a
// fixed list of task names. A Session subscribes to the file system with
// fsnotify, debounces events per group and re-runs the group's tasks through
// the executor. Runs of one group never overlap; a change arriving while a
// group is running schedules exactly one more run.
package watch
