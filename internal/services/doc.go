// Package services implements the reconciliation loops of fundwatch.
//
// # Overview
//
//   - ContributionService reads each address's ledger transfers, binds
//     recorded claims to them and imports the rest as donations with their
//     enotes. Pending donations whose transaction leaves the pool are
//     removed.
//   - AnnouncementService posts one comment per new address, with its QR
//     image when storage has one.
//   - SyncService lists a campaign's thread, plans the edits with package
//     diff and hands them to the Applier.
//   - Applier executes a plan edit by edit, each in its own transaction, and
//     refreshes the campaign title.
//
// # Failure model
//
// Every edit leaves a state the next plan converges from. Deletes and
// updates commit locally before calling the forum, creates post first and
// link afterwards. A link lost after a post is backfilled by the next plan
// as a NoOp instead of a second post.
//
// Collaborators (Forum, LedgerReader, QRSource) are interfaces so tests run
// against in-memory fakes.
package services
