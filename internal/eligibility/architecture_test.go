package eligibility_test

import (
	"testing"

	"rollupload/testutil"
)

func TestFilterDoesNotReachStorage(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.StorageImportForbidden, "eligibility decisions are pure over fetched candidates")
}
