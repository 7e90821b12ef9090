// Package testutil provides fixtures shared by package tests: the seeded
// test client and scope catalogue, a controllable clock, and a conformance
// suite every storage.Adapter implementation runs.
package testutil
