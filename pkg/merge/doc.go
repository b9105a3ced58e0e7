// Package merge provides the policies that combine previously committed
// slot data with an incoming success payload instead of overwriting it.
//
// Every Policy is pure and total: it never mutates its inputs, never
// panics on malformed values, and treats input of the wrong shape as an
// empty contribution.
package merge
