package sink_test

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb6px/sdrpipe/internal/psd"
	"github.com/kb6px/sdrpipe/internal/sink"
)

func TestTCPWriteAllDeliversWholeRecord(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			serverDone <- nil
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		serverDone <- buf[:n]
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	s := sink.NewTCP(conn)
	record := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, s.Write(record))
	require.NoError(t, s.Close())

	got := <-serverDone
	assert.Equal(t, record, got)
}

func TestCSVOverwritesWithHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spectrum.csv")
	c := sink.NewCSV(path, psd.DBm)

	result := psd.Result{
		FreqHz: []float64{100000000.123456, 100001000.0},
		Power:  []float64{-90.123456789012, -85.5},
	}
	require.NoError(t, c.Write(result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "freq_hz,psd_dBm\n")
	assert.Contains(t, content, "100000000.123456")

	// Overwritten, not appended, on a second cycle.
	result2 := psd.Result{FreqHz: []float64{1.0}, Power: []float64{-100}}
	require.NoError(t, c.Write(result2))
	data2, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data2), "100000000.123456")
}
