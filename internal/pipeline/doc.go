// Package pipeline orchestrates one packaging run end to end:
// classification, inventory, clip concatenation, verification,
// reporting, and package assembly, with the run recorded in the
// ledger. Stages run strictly sequentially; review flags accumulate
// without stopping the run, while precondition failures abort it.
package pipeline
