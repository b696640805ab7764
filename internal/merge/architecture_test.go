package merge_test

import (
	"testing"

	"rollupload/testutil"
)

func TestMergeDoesNotReachStorage(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.StorageImportForbidden, "merging works on accepted tuples only")
}
