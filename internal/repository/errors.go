package repository

import "errors"

var (
	// ErrWaitTimeout is returned by BrowserSession waits that run out of time.
	ErrWaitTimeout = errors.New("timed out waiting for page condition")
	// ErrNavigationFailed is returned when the browser cannot load a page.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrStoreRejected is returned when the store answers an upsert with an error.
	ErrStoreRejected = errors.New("store rejected upsert")
	// ErrRunInProgress is returned by RunLock.Acquire while another run holds the lock.
	ErrRunInProgress = errors.New("another scrape run is in progress")
)
