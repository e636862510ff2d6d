// Package models defines the client-side mirrors of server-owned entities.
//
// Except for Session, nothing here is durable on the client: each view
// fetches, renders, and optionally patches its copy from realtime events.
// The server is the source of truth for all balance and split arithmetic;
// the client only submits requests and renders responses.
//
// # Wire naming
//
// The API emits Mongo-style "_id" fields on nested documents and a plain
// "id" on auth responses. User decodes both into the same ID field so the
// rest of the client never has to care.
package models
