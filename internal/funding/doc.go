// Package funding holds the arithmetic behind campaign views and donation
// intake: progress and remaining-to-target, the vote-ratio verification rule,
// completion, and sanitizing of user-entered donation amounts into the 18
// fractional digits used on chain.
//
// Everything here is pure. Amounts are decimals end to end so that nothing
// handed to the chain layer has passed through a float.
package funding
