// Package server implements the HTTP and websocket surface using Echo.
//
// JSON endpoints (chat, group chat, posts) authenticate with the signed session
// cookie and call the application service. Websocket endpoints register their
// connection in the registry under a user, post or feed key and unregister on
// every exit path. Handlers are split by concern: handlers_chat.go,
// handlers_posts.go, handlers_ws.go, handlers_health.go.
package server
