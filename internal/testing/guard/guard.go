package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CLY_TEST_MODE") == "" {
			_ = os.Setenv("CLY_TEST_MODE", "1")
		}
	})
}
