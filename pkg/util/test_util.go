package util

import "testing"

// AssertError fails the test if the actual error doesn't match the expected
// error. If an error is expected and matches, returns true. I.e. the return
// value is "shouldContinue".
func AssertError(t *testing.T, caseIdx int, expected string, err error) bool {
	t.Helper()
	if err != nil {
		if expected == "" {
			t.Fatalf(`case %d: expected success; got error "%s"`, caseIdx, err.Error())
			return false
		}
		if err.Error() != expected {
			t.Fatalf(`case %d: expected error "%s"; got "%s"`, caseIdx, expected, err.Error())
			return false
		}
		return true
	}
	if expected != "" {
		t.Fatalf(`case %d: expected error "%s"; got success`, caseIdx, expected)
		return false
	}
	return false
}
