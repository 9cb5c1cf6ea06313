//go:build !unix

package speech

func suspend(int) error { return ErrPauseUnsupported }

func resume(int) error { return ErrPauseUnsupported }
