package businessflow

import "sync"

var (
	slugGenMutex sync.Mutex
)

func lockSlugGen() {
	slugGenMutex.Lock()
}

func unlockSlugGen() {
	slugGenMutex.Unlock()
}
