// Package models defines the core domain records for SettleUp.
//
// Every record carries an opaque UUID identifier and a LastModifiedAt
// timestamp (epoch milliseconds) used for last-write-wins conflict
// resolution during sync. Monetary amounts are int64 values in the
// smallest currency unit; there is no floating point anywhere in the
// money path.
//
// JSON field names are the wire format: the same snake_case names are
// used in the local cache payloads, the outbox, and the remote store,
// so a record can be pushed and pulled without translation.
package models
