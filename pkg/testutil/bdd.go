package testutil

import "testing"

// Given, When, and Then annotate test phases in the log output without
// pulling in a heavy BDD framework.
func Given(t *testing.T, desc string) {
	t.Helper()
	t.Logf("Given %s", desc)
}

func When(t *testing.T, desc string) {
	t.Helper()
	t.Logf("When %s", desc)
}

func Then(t *testing.T, desc string) {
	t.Helper()
	t.Logf("Then %s", desc)
}
