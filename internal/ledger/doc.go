// Package ledger persists a durable record of packaging runs in
// SQLite. Every run gets a row at start and a terminal status at the
// end, so interrupted or cancelled runs remain auditable after the
// process is gone. Review flags raised during a run are stored
// alongside it.
package ledger
