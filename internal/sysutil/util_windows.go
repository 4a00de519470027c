package sysutil

import "errors"

// RlimitNoFile is not available on Windows.
func RlimitNoFile() (uint64, error) {
	return 0, errors.New("open files limit is not available on windows")
}
