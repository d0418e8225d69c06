// Package session provides per-user key-value sessions for conversational
// bots together with memory, Redis and Postgres stores.
package session
