package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tarungka/sonata/stream"
)

func drain(t *testing.T, src stream.Source) []stream.Event {
	t.Helper()
	ch, err := src.Open(context.Background())
	require.NoError(t, err)

	var events []stream.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flows.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWaltsCSVSource(t *testing.T) {
	path := writeFile(t, "10.0.0.1,10.0.0.2,443,50000,3,180,0\n"+
		"0,10.0.0.2,22,50001,1,60,0\n"+
		"\n"+
		"10.0.0.3,10.0.0.2,80,50002,2,120,2\n")

	src, err := CreateSource(SourceConfig{ConnectionType: "walts_csv", Config: map[string]string{"path": path}})
	require.NoError(t, err)
	defer src.Close()

	events := drain(t, src)
	require.NoError(t, src.Err())

	ip := stream.MustIPv4
	assert.Equal(t, []stream.Event{
		stream.Data(stream.Tuple{
			"ipv4.src": ip("10.0.0.1"), "ipv4.dst": ip("10.0.0.2"),
			"l4.sport": stream.Int(443), "l4.dport": stream.Int(50000),
			"packet_count": stream.Int(3), "byte_count": stream.Int(180),
			"eid": stream.Int(0), "tuples": stream.Int(1),
		}),
		stream.Data(stream.Tuple{
			"ipv4.src": stream.Int(0), "ipv4.dst": ip("10.0.0.2"),
			"l4.sport": stream.Int(22), "l4.dport": stream.Int(50001),
			"packet_count": stream.Int(1), "byte_count": stream.Int(60),
			"eid": stream.Int(0), "tuples": stream.Int(2),
		}),
		stream.ResetEvent(stream.Tuple{"eid": stream.Int(0), "tuples": stream.Int(3)}),
		stream.ResetEvent(stream.Tuple{"eid": stream.Int(1), "tuples": stream.Int(0)}),
		stream.Data(stream.Tuple{
			"ipv4.src": ip("10.0.0.3"), "ipv4.dst": ip("10.0.0.2"),
			"l4.sport": stream.Int(80), "l4.dport": stream.Int(50002),
			"packet_count": stream.Int(2), "byte_count": stream.Int(120),
			"eid": stream.Int(2), "tuples": stream.Int(0),
		}),
		stream.ResetEvent(stream.Tuple{"eid": stream.Int(3), "tuples": stream.Int(0)}),
	}, events)

	term, ok := src.(stream.Terminated)
	require.True(t, ok)
	assert.True(t, term.EmitsFinalReset())
}

func TestWaltsCSVSourceEpochKey(t *testing.T) {
	path := writeFile(t, "1.1.1.1,2.2.2.2,1,2,3,4,0\n")
	src, err := NewWaltsCSVSource(SourceConfig{Config: map[string]string{"path": path, "epoch_key": "window"}})
	require.NoError(t, err)
	defer src.Close()

	events := drain(t, src)
	require.Len(t, events, 2)
	assert.Equal(t, stream.Int(0), events[0].Tuple["window"])
	assert.Equal(t, stream.ResetEvent(stream.Tuple{"window": stream.Int(1), "tuples": stream.Int(1)}), events[1])
}

func TestWaltsCSVSourceParseError(t *testing.T) {
	path := writeFile(t, "1.1.1.1,2.2.2.2,1,2,3,4,0\n1.1.1.1,2.2.2.2,x,2,3,4,0\n")
	src, err := NewWaltsCSVSource(SourceConfig{Config: map[string]string{"path": path}})
	require.NoError(t, err)
	defer src.Close()

	events := drain(t, src)
	assert.Len(t, events, 1)
	assert.ErrorContains(t, src.Err(), "l4") // wraps the column name
}

func TestWaltsCSVSourceShortLine(t *testing.T) {
	path := writeFile(t, "1.1.1.1,2.2.2.2,1\n")
	src, err := NewWaltsCSVSource(SourceConfig{Config: map[string]string{"path": path}})
	require.NoError(t, err)
	defer src.Close()

	assert.Empty(t, drain(t, src))
	assert.Error(t, src.Err())
}

func TestWaltsCSVSourceMissingFile(t *testing.T) {
	src, err := NewWaltsCSVSource(SourceConfig{Config: map[string]string{"path": filepath.Join(t.TempDir(), "nope.csv")}})
	require.NoError(t, err)
	_, err = src.Open(context.Background())
	assert.Error(t, err)
	assert.NoError(t, src.Close())
}

func TestWaltsCSVSourceRequiresPath(t *testing.T) {
	_, err := NewWaltsCSVSource(SourceConfig{ConnectionType: "walts_csv"})
	assert.ErrorContains(t, err, "path")
}

func TestSyntheticSourceDefaults(t *testing.T) {
	src, err := CreateSource(SourceConfig{ConnectionType: "synthetic"})
	require.NoError(t, err)

	events := drain(t, src)
	require.Len(t, events, 20)
	for i, ev := range events {
		assert.False(t, ev.Reset)
		assert.Equal(t, stream.Float(float64(i)), ev.Tuple["time"])
	}

	first := events[0].Tuple
	assert.Equal(t, stream.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, first["eth.src"])
	assert.Equal(t, stream.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, first["eth.dst"])
	assert.Equal(t, stream.Int(0x0800), first["eth.ethertype"])
	assert.Equal(t, stream.MustIPv4("127.0.0.1"), first["ipv4.src"])
	assert.Equal(t, stream.Int(6), first["ipv4.proto"])
	assert.Equal(t, stream.Int(440), first["l4.sport"])
	assert.Equal(t, stream.Int(50000), first["l4.dport"])
	assert.Equal(t, stream.Int(10), first["l4.flags"])
}

func TestSyntheticSourceConfig(t *testing.T) {
	src, err := NewSyntheticSource(SourceConfig{Config: map[string]string{
		"count":  "4",
		"start":  "10",
		"step":   "0.5",
		"src":    "10.0.0.254",
		"spread": "3",
		"flags":  "2",
	}})
	require.NoError(t, err)

	events := drain(t, src)
	require.Len(t, events, 4)
	want := []string{"10.0.0.254", "10.0.0.255", "10.0.1.0", "10.0.0.254"}
	for i, ev := range events {
		assert.Equal(t, stream.MustIPv4(want[i]), ev.Tuple["ipv4.src"])
		assert.Equal(t, stream.Float(10+0.5*float64(i)), ev.Tuple["time"])
		assert.Equal(t, stream.Int(2), ev.Tuple["l4.flags"])
	}
}

func TestSyntheticSourceInvalidConfig(t *testing.T) {
	for _, cfg := range []map[string]string{
		{"count": "many"},
		{"count": "-1"},
		{"spread": "0"},
		{"src": "localhost"},
		{"step": "fast"},
	} {
		_, err := NewSyntheticSource(SourceConfig{ConnectionType: "synthetic", Config: cfg})
		assert.Error(t, err, "%v", cfg)
	}
}

func TestCreateSourceUnknownType(t *testing.T) {
	_, err := CreateSource(SourceConfig{ConnectionType: "carrier-pigeon"})
	assert.Error(t, err)
	assert.Equal(t, []string{"kafka", "synthetic", "walts_csv"}, Types())
}

func TestKafkaSourceRequiresConfig(t *testing.T) {
	_, err := NewKafkaSource(SourceConfig{ConnectionType: "kafka", Config: map[string]string{
		"bootstrap_servers": "localhost:9092",
		"topic":             "packets",
	}})
	assert.ErrorContains(t, err, "group")
}

func TestRecordEvent(t *testing.T) {
	tup := stream.Tuple{"eid": stream.Int(3)}
	value, err := stream.EncodeTuple(tup)
	require.NoError(t, err)

	ev, err := recordEvent(&kgo.Record{Value: value})
	require.NoError(t, err)
	assert.Equal(t, stream.Data(tup), ev)

	ev, err = recordEvent(&kgo.Record{Value: value, Headers: []kgo.RecordHeader{{Key: ResetHeader}}})
	require.NoError(t, err)
	assert.Equal(t, stream.ResetEvent(tup), ev)

	_, err = recordEvent(&kgo.Record{Value: []byte{0xc1}})
	assert.Error(t, err)
}
