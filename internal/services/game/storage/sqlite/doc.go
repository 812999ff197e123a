// Package sqlite implements the game persistence contracts on SQLite.
//
// It owns the schema and embedded migrations, and it is the only package
// translating roster records and the singleton game state into concrete SQL
// rows and transactions. Batch application enforces the generation guard
// and the victim alive guard inside one transaction.
package sqlite
