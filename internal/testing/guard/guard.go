// Package guard forces test mode before any package init code can start
// runtime side effects. Import it for side effects from _test files.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("FARMLINK_TEST_MODE") == "" {
			_ = os.Setenv("FARMLINK_TEST_MODE", "1")
		}
	})
}
