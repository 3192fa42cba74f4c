package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("VELODASH_TEST_MODE") == "" {
			_ = os.Setenv("VELODASH_TEST_MODE", "1")
		}
	})
}
