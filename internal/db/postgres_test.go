package db

import "testing"

func TestOpen_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "://localhost/test"} {
		conn, err := Open(dsn)
		if err == nil {
			if conn != nil {
				conn.Close()
			}
			t.Errorf("Open(%q) should return error", dsn)
			continue
		}
		if conn != nil {
			t.Errorf("Open(%q) should return nil db on error", dsn)
		}
	}
}
