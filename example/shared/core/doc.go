// Package core contains domain events for the example:
// a legal-tech backend managing users, law firms (buffets), and
// vehicle investigation case records.
//
// Events represent meaningful business occurrences like UserRegistered and
// InvestigationOpened. All of them embed coordination.EventRecord for
// identity and timing and implement the coordination.Event interface, so
// they can be raised on a unit of work and dispatched by the event bus.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would
// be called the 'domain' layer.
package core
