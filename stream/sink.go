package stream

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/go-faster/errors"
)

// DumpOperator is a terminal operator that prints every tuple it receives.
type DumpOperator struct {
	w         io.Writer
	showReset bool
}

// NewDump creates a DumpOperator writing to w. When showReset is set, resets
// are printed too, as the context tuple followed by a [reset] line.
func NewDump(w io.Writer, showReset bool) *DumpOperator {
	return &DumpOperator{w: w, showReset: showReset}
}

// Next writes tup on its own line.
func (d *DumpOperator) Next(tup Tuple) error {
	_, err := io.WriteString(d.w, tup.String()+"\n")
	return err
}

// Reset writes ctx if resets are shown.
func (d *DumpOperator) Reset(ctx Tuple) error {
	if !d.showReset {
		return nil
	}
	_, err := io.WriteString(d.w, ctx.String()+"\n[reset]\n")
	return err
}

// StaticField is a constant column prepended to every CSV row.
type StaticField struct {
	Name  string
	Value string
}

// CSVOperator is a terminal operator writing tuples as CSV rows, fields in
// key order.
type CSVOperator struct {
	w      *csv.Writer
	static *StaticField
	header bool
}

// NewCSVDump creates a CSVOperator. When header is set, the keys of the first
// tuple are written as a header row.
func NewCSVDump(w io.Writer, static *StaticField, header bool) *CSVOperator {
	return &CSVOperator{w: csv.NewWriter(w), static: static, header: header}
}

// Next writes tup as one row.
func (c *CSVOperator) Next(tup Tuple) error {
	keys := tup.Keys()
	if c.header {
		row := make([]string, 0, len(keys)+1)
		if c.static != nil {
			row = append(row, c.static.Name)
		}
		if err := c.w.Write(append(row, keys...)); err != nil {
			return err
		}
		c.header = false
	}

	row := make([]string, 0, len(keys)+1)
	if c.static != nil {
		row = append(row, c.static.Value)
	}
	for _, k := range keys {
		row = append(row, tup[k].String())
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Reset is a no-op.
func (c *CSVOperator) Reset(Tuple) error { return nil }

// WaltsFields are the columns of the flow export format, in file order.
var WaltsFields = []string{"src_ip", "dst_ip", "src_l4_port", "dst_l4_port", "packet_count", "byte_count", "epoch_id"}

// WaltsCSVOperator writes tuples in the headerless flow export format.
type WaltsCSVOperator struct {
	w *csv.Writer
}

// NewWaltsCSVDump creates a WaltsCSVOperator.
func NewWaltsCSVDump(w io.Writer) *WaltsCSVOperator {
	return &WaltsCSVOperator{w: csv.NewWriter(w)}
}

// Next writes one row. Every column of WaltsFields must be present.
func (o *WaltsCSVOperator) Next(tup Tuple) error {
	row := make([]string, len(WaltsFields))
	for i, k := range WaltsFields {
		v, err := tup.Get(k)
		if err != nil {
			return errors.Wrap(err, "walts csv")
		}
		row[i] = v.String()
	}
	if err := o.w.Write(row); err != nil {
		return err
	}
	o.w.Flush()
	return o.w.Error()
}

// Reset is a no-op.
func (o *WaltsCSVOperator) Reset(Tuple) error { return nil }

// MetaMeter counts the tuples passing through it per window and writes
// "epoch,name,count[,static]" on every reset before forwarding it.
type MetaMeter struct {
	name   string
	w      io.Writer
	static *string
	next   Operator

	epochs int64
	tuples int64
}

// NewMetaMeter creates a MetaMeter. static may be nil.
func NewMetaMeter(name string, w io.Writer, static *string, next Operator) *MetaMeter {
	return &MetaMeter{name: name, w: w, static: static, next: next}
}

// Next counts tup and forwards it.
func (m *MetaMeter) Next(tup Tuple) error {
	m.tuples++
	return m.next.Next(tup)
}

// Reset writes the count of the closing window and forwards ctx.
func (m *MetaMeter) Reset(ctx Tuple) error {
	line := strconv.FormatInt(m.epochs, 10) + "," + m.name + "," + strconv.FormatInt(m.tuples, 10)
	if m.static != nil {
		line += "," + *m.static
	}
	if _, err := io.WriteString(m.w, line+"\n"); err != nil {
		return err
	}
	m.tuples = 0
	m.epochs++
	return m.next.Reset(ctx)
}

// Collector is a terminal operator that keeps everything it receives.
type Collector struct {
	tuples []Tuple
	resets []Tuple
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Next records tup.
func (c *Collector) Next(tup Tuple) error {
	c.tuples = append(c.tuples, tup)
	return nil
}

// Reset records ctx.
func (c *Collector) Reset(ctx Tuple) error {
	c.resets = append(c.resets, ctx)
	return nil
}

// Tuples returns the tuples received so far.
func (c *Collector) Tuples() []Tuple { return c.tuples }

// Resets returns the reset contexts received so far.
func (c *Collector) Resets() []Tuple { return c.resets }
