// Package app provides the application service layer.
//
// Orchestrates use cases: personal and group messaging, likes, comments, read
// marking and group chat membership. Every mutation commits through a domain
// repository before the delivery engine fans it out, so no envelope describes
// state that was not stored.
package app
