// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (user.go, chat.go, post.go, unread.go, errors.go) hold the
// shared model types and the repository contracts implemented by the database package.
// No implementation code - just contracts.
package domain
