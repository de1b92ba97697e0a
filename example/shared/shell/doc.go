// Package shell provides the infrastructure around the example domain:
// entities, repository sessions (in-memory and Postgres), event subscribers,
// and the commit retry helper.
//
// Repository sessions stage mutations per unit-of-work scope and flush them
// when the scope commits, so a rolled-back scope leaves no trace. The
// in-memory store backs tests and the Postgres sessions build their SQL with
// goqu and run it on the scope's transaction.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would
// be called the 'infrastructure' layer.
package shell
