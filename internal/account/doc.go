// Package account owns users and their billing customer rows.
//
// Schema changes live in migrations/ and are embedded as Migrations so the
// binary can apply them at start-up through pkg/db.Migrate. Repository is a
// thin pgx layer over a DBTX, which lets tests drive it with pgxmock.
// Procedures exposes the customer.* and auth.* RPC procedures.
package account
