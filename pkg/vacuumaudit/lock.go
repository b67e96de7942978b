package vacuumaudit

import "time"

// defaultLockRetry is the interval at which Run retries a flock held by
// a concurrent audit. Run keeps retrying until it gets the lock or its
// context is done; the interval does not bound the total wait.
const defaultLockRetry = 200 * time.Millisecond
