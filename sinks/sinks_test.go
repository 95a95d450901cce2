package sinks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarungka/sonata/stream"
)

func result(eid, cons int64) stream.Tuple {
	return stream.Tuple{
		"eid":      stream.Int(eid),
		"ipv4.dst": stream.MustIPv4("10.0.0.2"),
		"cons":     stream.Int(cons),
	}
}

func TestFileSinkCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.csv")
	s, err := CreateSink(SinkConfig{
		Name:           "new-cons",
		ConnectionType: "file",
		Config: map[string]string{
			"file_path":    path,
			"format":       FormatCSV,
			"static_name":  "query",
			"static_value": "tcp_new_cons",
		},
	})
	require.NoError(t, err)

	require.NoError(t, s.Next(result(0, 50)))
	require.NoError(t, s.Reset(stream.Tuple{"eid": stream.Int(0)}))
	require.NoError(t, s.Next(result(1, 41)))
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "query,cons,eid,ipv4.dst\n"+
		"tcp_new_cons,50,0,10.0.0.2\n"+
		"tcp_new_cons,41,1,10.0.0.2\n", string(b))
}

func TestFileSinkAppendAndTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.txt")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	s, err := NewFileSink(SinkConfig{ConnectionType: "file", Config: map[string]string{"file_path": path}})
	require.NoError(t, err)
	require.NoError(t, s.Next(stream.Tuple{"a": stream.Int(1)}))
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n\"a\" => 1, \n", string(b))

	s, err = NewFileSink(SinkConfig{ConnectionType: "file", Config: map[string]string{"file_path": path, "truncate": "true"}})
	require.NoError(t, err)
	require.NoError(t, s.Next(stream.Tuple{"b": stream.Int(2)}))
	require.NoError(t, s.Close())

	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"b\" => 2, \n", string(b))
}

func TestFileSinkDumpResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.txt")
	s, err := NewFileSink(SinkConfig{ConnectionType: "file", Config: map[string]string{
		"file_path":  path,
		"show_reset": "true",
	}})
	require.NoError(t, err)
	require.NoError(t, s.Reset(stream.Tuple{"eid": stream.Int(0)}))

	// resets flush the buffer
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"eid\" => 0, \n[reset]\n", string(b))
	require.NoError(t, s.Close())
}

func TestFileSinkWalts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv")
	s, err := NewFileSink(SinkConfig{ConnectionType: "file", Config: map[string]string{
		"file_path": path,
		"format":    FormatWalts,
	}})
	require.NoError(t, err)

	require.NoError(t, s.Next(stream.Tuple{
		"src_ip":       stream.MustIPv4("1.1.1.1"),
		"dst_ip":       stream.MustIPv4("2.2.2.2"),
		"src_l4_port":  stream.Int(1),
		"dst_l4_port":  stream.Int(2),
		"packet_count": stream.Int(3),
		"byte_count":   stream.Int(4),
		"epoch_id":     stream.Int(5),
	}))
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1,2.2.2.2,1,2,3,4,5\n", string(b))
}

func TestSinkConfigErrors(t *testing.T) {
	_, err := CreateSink(SinkConfig{ConnectionType: "file"})
	assert.ErrorContains(t, err, "file_path")

	_, err = CreateSink(SinkConfig{ConnectionType: "stdout", Config: map[string]string{"format": "xml"}})
	assert.ErrorContains(t, err, "xml")

	_, err = CreateSink(SinkConfig{ConnectionType: "stdout", Config: map[string]string{"show_reset": "maybe"}})
	assert.Error(t, err)

	_, err = CreateSink(SinkConfig{ConnectionType: "kafka", Config: map[string]string{"topic": "results"}})
	assert.ErrorContains(t, err, "bootstrap_servers")

	_, err = CreateSink(SinkConfig{ConnectionType: "s3"})
	assert.Error(t, err)
}

func TestCreateSinkDefaultsToStdout(t *testing.T) {
	s, err := CreateSink(SinkConfig{})
	require.NoError(t, err)
	assert.IsType(t, &WriterSink{}, s)
	assert.NoError(t, s.Close())
	assert.Equal(t, []string{"file", "kafka", "stdout"}, Types())
}
