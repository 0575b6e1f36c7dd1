//go:build !unix

package wol

import "syscall"

func enableBroadcast(_, _ string, _ syscall.RawConn) error {
	return nil
}
