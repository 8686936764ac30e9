package frontend

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPipe_SplicesBothDirections(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	upstreamClientSide, upstreamServerSide := net.Pipe()

	done := make(chan struct{})
	go func() {
		pipe(serverSide, upstreamClientSide)
		close(done)
	}()

	go func() {
		buf := make([]byte, 5)
		io.ReadFull(upstreamServerSide, buf)
		upstreamServerSide.Write([]byte("world"))
		upstreamServerSide.Close()
	}()

	clientSide.SetDeadline(time.Now().Add(2 * time.Second))
	_, err := clientSide.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = io.ReadFull(clientSide, buf)
	require.NoError(t, err)
	require.Equal(t, "world", string(buf))

	clientSide.Close()
	<-done
}
