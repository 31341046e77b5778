// Package store persists entity records as JSON documents in one gorm table.
//
// Each row holds a collection name, an id, the entity fields as a JSON body and the
// system fields (is_deleted, provenance, created/updated at and by) as columns.
// SetMany runs every call in a single transaction, which is what gives the commit
// executor its atomic chunks. Patches read the stored body inside that transaction
// and overwrite only the supplied fields.
//
// Repository adds typed access on top, decoding bodies into the entity structs of
// feature/research and feature/academic.
package store
