// Package diff computes the positional edits that bring a remote comment
// thread in line with a campaign's donations.
//
// Donations in display order (SortDonations) are paired with the bot's
// status comments in id order. Each position yields one Edit: Update when
// the rendered content differs, NoOp when it matches, Create past the last
// comment and Delete past the last donation. Render is pure, so a plan
// computed twice over the same inputs is identical.
package diff
