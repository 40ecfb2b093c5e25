// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling and tern for embedded migrations. Repositories
// implement the domain contracts: UserRepository, MessageRepository,
// GroupChatRepository, PostRepository and ReadStateRepository. Multi-row writes
// (group message plus read-status rows, like toggle plus counter) run in a
// single transaction so the realtime layer only ever announces committed state.
package database
