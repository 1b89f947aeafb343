// Package engine runs hatgram's single-threaded event loop.
//
// Everything that reads or replaces term tables goes through one FIFO
// queue drained by Run:
//
//   - Utterances: Resolve enqueues a phrase and waits for the reply.
//   - Tasks: Post enqueues a function. File watchers and the hat reload
//     timers post their reloads here instead of touching tables directly.
//
// Because both kinds share the queue, a reload never interleaves with a
// resolution. Readers outside the loop still see whole tables, since the
// terms package publishes each vocabulary through an atomic pointer.
//
// ResolveNow is the synchronous form for callers with no loop running,
// such as one-shot CLI commands and tests.
//
// Resolved utterances are stamped with a logical clock (seq) and, when a
// store is configured, appended to the history log.
package engine
