// Package billing provides the domain model of the metered usage billing
// reconciliation engine.
//
// Every billable compute resource (virtual machine, managed application
// instance, add-on subscription) carries a billing checkpoint: the instant up
// to which it has been fully charged. Reconciliation computes the whole hours
// elapsed since that checkpoint, converts them into money using the resource's
// plan pricing, debits the owner's prepaid credit wallet and appends an
// immutable ledger entry. Fractional hours are never charged; they accrue
// until the next full hour boundary.
//
// Key types:
//   - BillableResource: uniform billing view over the per-kind catalogs
//   - RateComponents: hourly rate broken into base, add-on and multiplier
//   - LedgerEntry: immutable record of one charge attempt, billed or failed
//   - SweepResult: per-run aggregate returned to the caller, never persisted
//
// The package defines the ports consumed by the application layer
// (ResourceSource, ResourceRepository, LedgerRepository, WalletGateway,
// PaymentLookup); implementations live in the infrastructure layer.
package billing
