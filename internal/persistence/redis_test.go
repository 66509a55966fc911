package persistence

import "testing"

func TestProgressKey(t *testing.T) {
	t.Parallel()

	if got := progressKey("auth0|abc"); got != "study-advent:progress:auth0|abc" {
		t.Errorf("Expected namespaced key, got %s", got)
	}
}
