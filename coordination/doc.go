// Package coordination provides the transactional coordination core for a
// domain-driven application: a Unit-of-Work scope that makes repository
// mutations atomic, and an in-process Event Bus that delivers domain events
// to decoupled subscribers.
//
// The two components are deliberately wired in one direction only: events
// raised inside a Unit-of-Work scope are queued, and the queue is flushed to
// the Event Bus strictly after the underlying persistence has committed.
// Subscribers therefore never observe an event whose state change did not
// durably persist ("persist, then notify" - never the reverse).
//
// Key types:
//   - Event: immutable domain fact with identity, timestamp, and type tag
//   - EventBus: type-keyed handler registry with ordered, isolated dispatch
//   - UnitOfWork: transactional scope with commit/rollback semantics
//   - Repository: generic per-aggregate CRUD contract for collaborators
//   - TransactionalStore: pluggable storage transaction behind a scope
//
// Common usage pattern:
//
//	bus, _ := coordination.NewEventBus()
//	bus.Subscribe(core.UserRegisteredEventType, auditTrail.Handle)
//
//	uow, _ := coordination.Begin(bus, coordination.WithStore(txStore))
//	err := uow.Execute(ctx, func(uow *coordination.UnitOfWork) error {
//		session := userStore.OpenSession()
//		if err := uow.Enlist(session); err != nil {
//			return err
//		}
//		user, err := session.Add(ctx, newUser)
//		if err != nil {
//			return err
//		}
//		return uow.Raise(core.BuildUserRegistered(user.ID, user.Name, user.Email, user.TaxID, user.Role, time.Now()))
//	})
package coordination
