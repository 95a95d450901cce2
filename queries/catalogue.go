package queries

import (
	s "github.com/tarungka/sonata/stream"
)

const eid = s.DefaultEpochKey

func init() {
	register(Spec{Name: "ident", Inputs: 1, Build: single(Ident),
		Description: "forward every packet without its ethernet addresses"})
	register(Spec{Name: "count_pkts", Inputs: 1, Timed: true, Build: single(CountPkts),
		Description: "packets per window"})
	register(Spec{Name: "pkts_per_src_dst", Inputs: 1, Timed: true, Build: single(PktsPerSrcDst),
		Description: "packets per source and destination per window"})
	register(Spec{Name: "distinct_srcs", Inputs: 1, Timed: true, Build: single(DistinctSrcs),
		Description: "distinct source addresses per window"})
	register(Spec{Name: "tcp_new_cons", Inputs: 1, Timed: true, Build: single(TCPNewCons),
		Description: "destinations receiving at least threshold SYNs"})
	register(Spec{Name: "ssh_brute_force", Inputs: 1, Timed: true, Build: single(SSHBruteForce),
		Description: "equal sized SSH attempts from at least threshold sources"})
	register(Spec{Name: "super_spreader", Inputs: 1, Timed: true, Build: single(SuperSpreader),
		Description: "sources contacting at least threshold destinations"})
	register(Spec{Name: "port_scan", Inputs: 1, Timed: true, Build: single(PortScan),
		Description: "sources probing at least threshold ports"})
	register(Spec{Name: "ddos", Inputs: 1, Timed: true, Build: single(DDoS),
		Description: "destinations contacted by at least threshold sources"})
	register(Spec{Name: "syn_flood", Inputs: 3, Timed: true, Build: SynFlood,
		Description: "hosts whose SYNs and SYN-ACKs exceed their ACKs; inputs: syns, synacks, acks"})
	register(Spec{Name: "completed_flows", Inputs: 2, Timed: true, Build: CompletedFlows,
		Description: "hosts opening more flows than they close; inputs: syns, fins"})
	register(Spec{Name: "slowloris", Inputs: 2, Timed: true, Build: Slowloris,
		Description: "destinations holding many connections with few bytes each; inputs: conns, bytes"})
	register(Spec{Name: "join_test", Inputs: 2, Timed: true, Build: JoinTest,
		Description: "SYNs joined with SYN-ACKs per host; inputs: syns, synacks"})
	register(Spec{Name: "q3", Inputs: 1, Timed: true, Build: single(Q3),
		Description: "distinct source and destination pairs per 100s window"})
	register(Spec{Name: "q4", Inputs: 1, Timed: true, Build: single(Q4),
		Description: "packets per destination per 10000s window"})
}

func epoch(p Params, def float64, next s.Operator) s.Operator {
	return s.NewEpoch(p.Float(ParamEpochWidth, def), eid, next)
}

// Ident strips the ethernet addresses of every packet.
func Ident(_ Params, next s.Operator) s.Operator {
	return s.NewMap(RemoveEthKeys, next)
}

// CountPkts counts the packets of each window under "pkts".
func CountPkts(p Params, next s.Operator) s.Operator {
	return epoch(p, 1.0,
		s.NewGroupBy(s.SingleGroup, s.Counter, "pkts", next))
}

// PktsPerSrcDst counts the packets of each source and destination pair.
func PktsPerSrcDst(p Params, next s.Operator) s.Operator {
	return epoch(p, 1.0,
		s.NewGroupBy(s.ProjectKeys("ipv4.src", "ipv4.dst"), s.Counter, "pkts", next))
}

// DistinctSrcs counts the distinct sources of each window under "srcs".
func DistinctSrcs(p Params, next s.Operator) s.Operator {
	return epoch(p, 1.0,
		s.NewDistinct(s.ProjectKeys("ipv4.src"),
			s.NewGroupBy(s.SingleGroup, s.Counter, "srcs", next)))
}

// TCPNewCons reports destinations receiving at least threshold (40) SYNs in
// a window, with the count under "cons".
func TCPNewCons(p Params, next s.Operator) s.Operator {
	threshold := p.Int(ParamThreshold, 40)
	return epoch(p, 1.0,
		s.NewFilter(FilterProtoFlags(protoTCP, flagSYN),
			s.NewGroupBy(s.ProjectKeys("ipv4.dst"), s.Counter, "cons",
				s.NewFilter(s.KeyGeqInt("cons", threshold), next))))
}

// SSHBruteForce reports SSH destinations receiving packets of one length
// from at least threshold (40) sources.
func SSHBruteForce(p Params, next s.Operator) s.Operator {
	threshold := p.Int(ParamThreshold, 40)
	return epoch(p, 1.0,
		s.NewFilter(FilterProtoDport(protoTCP, portSSH),
			s.NewDistinct(s.ProjectKeys("ipv4.src", "ipv4.dst", "ipv4.len"),
				s.NewGroupBy(s.ProjectKeys("ipv4.dst", "ipv4.len"), s.Counter, "srcs",
					s.NewFilter(s.KeyGeqInt("srcs", threshold), next)))))
}

// SuperSpreader reports sources contacting at least threshold (40)
// destinations, with the count under "dsts".
func SuperSpreader(p Params, next s.Operator) s.Operator {
	threshold := p.Int(ParamThreshold, 40)
	return epoch(p, 1.0,
		s.NewDistinct(s.ProjectKeys("ipv4.src", "ipv4.dst"),
			s.NewGroupBy(s.ProjectKeys("ipv4.src"), s.Counter, "dsts",
				s.NewFilter(s.KeyGeqInt("dsts", threshold), next))))
}

// PortScan reports sources probing at least threshold (40) destination
// ports, with the count under "ports".
func PortScan(p Params, next s.Operator) s.Operator {
	threshold := p.Int(ParamThreshold, 40)
	return epoch(p, 1.0,
		s.NewDistinct(s.ProjectKeys("ipv4.src", "l4.dport"),
			s.NewGroupBy(s.ProjectKeys("ipv4.src"), s.Counter, "ports",
				s.NewFilter(s.KeyGeqInt("ports", threshold), next))))
}

// DDoS reports destinations contacted by at least threshold (45) sources,
// with the count under "srcs".
func DDoS(p Params, next s.Operator) s.Operator {
	threshold := p.Int(ParamThreshold, 45)
	return epoch(p, 1.0,
		s.NewDistinct(s.ProjectKeys("ipv4.src", "ipv4.dst"),
			s.NewGroupBy(s.ProjectKeys("ipv4.dst"), s.Counter, "srcs",
				s.NewFilter(s.KeyGeqInt("srcs", threshold), next))))
}

// SynFlood joins the per-host counts of SYNs, SYN-ACKs and ACKs and reports
// hosts where syns+synacks-acks reaches threshold (3). The returned entries
// consume the syn, synack and ack streams, in that order.
func SynFlood(p Params, next s.Operator) []s.Operator {
	threshold := p.Int(ParamThreshold, 3)
	width := p.Float(ParamEpochWidth, 1.0)

	counts := func(flags int64, by, out string, next s.Operator) s.Operator {
		return s.NewEpoch(width, eid,
			s.NewFilter(FilterProtoFlags(protoTCP, flags),
				s.NewGroupBy(s.ProjectKeys(by), s.Counter, out, next)))
	}

	// syns+synacks joined with acks
	joinLeft, joinRight := s.NewJoin(
		s.Extract(s.ProjectKeys("host"), s.ProjectKeys("syns+synacks")),
		s.Extract(rename("ipv4.dst", "host"), s.ProjectKeys("acks")),
		s.NewMap(combine("syns+synacks-acks", "syns+synacks", "acks", diff),
			s.NewFilter(s.KeyGeqInt("syns+synacks-acks", threshold), next)),
	)

	// syns sent to a host joined with the synacks it answers with
	synsSide, synacksSide := s.NewJoin(
		s.Extract(rename("ipv4.dst", "host"), s.ProjectKeys("syns")),
		s.Extract(rename("ipv4.src", "host"), s.ProjectKeys("synacks")),
		s.NewMap(combine("syns+synacks", "syns", "synacks", sum), joinLeft),
	)

	return []s.Operator{
		counts(flagSYN, "ipv4.dst", "syns", synsSide),
		counts(flagSYNACK, "ipv4.src", "synacks", synacksSide),
		counts(flagACK, "ipv4.dst", "acks", joinRight),
	}
}

// CompletedFlows joins the SYNs sent to and the FINs sent by each host over
// 30s windows and reports hosts where syns-fins reaches threshold (1). The
// returned entries consume the syn and fin streams.
func CompletedFlows(p Params, next s.Operator) []s.Operator {
	threshold := p.Int(ParamThreshold, 1)
	width := p.Float(ParamEpochWidth, 30.0)

	left, right := s.NewJoin(
		s.Extract(rename("ipv4.dst", "host"), s.ProjectKeys("syns")),
		s.Extract(rename("ipv4.src", "host"), s.ProjectKeys("fins")),
		s.NewMap(combine("diff", "syns", "fins", diff),
			s.NewFilter(s.KeyGeqInt("diff", threshold), next)),
	)

	syns := s.NewEpoch(width, eid,
		s.NewFilter(FilterProtoFlags(protoTCP, flagSYN),
			s.NewGroupBy(s.ProjectKeys("ipv4.dst"), s.Counter, "syns", left)))
	fins := s.NewEpoch(width, eid,
		s.NewFilter(filterTCPFin,
			s.NewGroupBy(s.ProjectKeys("ipv4.src"), s.Counter, "fins", right)))

	return []s.Operator{syns, fins}
}

// Slowloris reports destinations holding at least conns_threshold (5)
// connections and bytes_threshold (500) bytes in a window, at no more than
// bytes_per_conn_threshold (90) bytes per connection. The returned entries
// consume the connection and byte streams.
func Slowloris(p Params, next s.Operator) []s.Operator {
	t1 := p.Int("conns_threshold", 5)
	t2 := p.Int("bytes_threshold", 500)
	t3 := p.Int("bytes_per_conn_threshold", 90)
	width := p.Float(ParamEpochWidth, 1.0)

	left, right := s.NewJoin(
		s.Extract(s.ProjectKeys("ipv4.dst"), s.ProjectKeys("n_conns")),
		s.Extract(s.ProjectKeys("ipv4.dst"), s.ProjectKeys("n_bytes")),
		s.NewMap(combine("bytes_per_conn", "n_bytes", "n_conns", quot),
			s.NewFilter(s.KeyLeqInt("bytes_per_conn", t3), next)),
	)

	conns := s.NewEpoch(width, eid,
		s.NewFilter(FilterProto(protoTCP),
			s.NewDistinct(s.ProjectKeys("ipv4.src", "ipv4.dst", "l4.sport"),
				s.NewGroupBy(s.ProjectKeys("ipv4.dst"), s.Counter, "n_conns",
					s.NewFilter(s.KeyGeqInt("n_conns", t1), left)))))
	bytes := s.NewEpoch(width, eid,
		s.NewFilter(FilterProto(protoTCP),
			s.NewGroupBy(s.ProjectKeys("ipv4.dst"), s.SumInts("ipv4.len"), "n_bytes",
				s.NewFilter(s.KeyGeqInt("n_bytes", t2), right))))

	return []s.Operator{conns, bytes}
}

// JoinTest joins SYNs sent by a host with SYN-ACKs sent to it in the same
// window, pairing the SYN's destination with the SYN-ACK's time.
func JoinTest(p Params, next s.Operator) []s.Operator {
	width := p.Float(ParamEpochWidth, 1.0)

	left, right := s.NewJoin(
		s.Extract(rename("ipv4.src", "host"), rename("ipv4.dst", "remote")),
		s.Extract(rename("ipv4.dst", "host"), s.ProjectKeys("time")),
		next,
	)

	syns := s.NewEpoch(width, eid, s.NewFilter(FilterProtoFlags(protoTCP, flagSYN), left))
	synacks := s.NewEpoch(width, eid, s.NewFilter(FilterProtoFlags(protoTCP, flagSYNACK), right))
	return []s.Operator{syns, synacks}
}

// Q3 emits the distinct source and destination pairs of 100s windows.
func Q3(p Params, next s.Operator) s.Operator {
	return epoch(p, 100.0,
		s.NewDistinct(s.ProjectKeys("ipv4.src", "ipv4.dst"), next))
}

// Q4 counts the packets per destination of 10000s windows.
func Q4(p Params, next s.Operator) s.Operator {
	return epoch(p, 10000.0,
		s.NewGroupBy(s.ProjectKeys("ipv4.dst"), s.Counter, "pkts", next))
}
