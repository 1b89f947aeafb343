// Package app assembles a running hatgram session from its parts.
//
// Open builds, in order:
//
//  1. the default tables (embedded CUE, or a user-compiled set)
//  2. a terms.Manager loading each domain and its override CSV
//  3. a hats.Controller owning the hat_styles domain
//  4. a grammar reading the manager's live lists
//  5. an engine that resolves phrases and runs every reload
//
// When watching is on, a single fsnotify watcher feeds both the override
// files and the settings file, and all reloads are posted to the engine.
package app
