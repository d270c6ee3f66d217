// Package pcapconv converts packet captures into tabular batches so
// PCAP files can be analyzed by the same pipeline as CSV uploads.
package pcapconv

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/trafficlens/trafficlens/pkg/dataset"
)

// Header is the column layout produced for every capture.
var Header = []string{
	"packet_size",
	"inter_arrival_time",
	"protocol",
	"src_port",
	"dst_port",
	"tcp_flags",
	"ip_ttl",
	"payload_size",
	dataset.LabelColumn,
}

// record is one packet rendered as CSV-shaped cells. Packets are
// unlabeled, so every row carries the default "normal" label.
type record [9]string

// extractor derives per-packet features, tracking inter-arrival time
// across consecutive packets.
type extractor struct {
	lastSeen int64 // unix nanos of the previous packet, 0 before the first
}

func newExtractor() *extractor {
	return &extractor{}
}

func (e *extractor) extract(packet gopacket.Packet) record {
	var rec record
	rec[0] = itoa(len(packet.Data()))
	rec[1] = "0"
	rec[2] = "OTHER"
	rec[3], rec[4], rec[5], rec[6], rec[7] = "0", "0", "0", "0", "0"
	rec[8] = "normal"

	if md := packet.Metadata(); md != nil && !md.Timestamp.IsZero() {
		now := md.Timestamp.UnixNano()
		if e.lastSeen != 0 {
			rec[1] = ftoa(float64(now-e.lastSeen) / 1e9)
		}
		e.lastSeen = now
	}

	if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		tcp := tcpLayer.(*layers.TCP)
		rec[2] = "TCP"
		rec[3] = itoa(int(tcp.SrcPort))
		rec[4] = itoa(int(tcp.DstPort))
		rec[5] = itoa(flagBits(tcp))
	} else if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp := udpLayer.(*layers.UDP)
		rec[2] = "UDP"
		rec[3] = itoa(int(udp.SrcPort))
		rec[4] = itoa(int(udp.DstPort))
	} else if packet.Layer(layers.LayerTypeICMPv4) != nil {
		rec[2] = "ICMP"
	}

	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		rec[6] = itoa(int(ipLayer.(*layers.IPv4).TTL))
	}
	if app := packet.ApplicationLayer(); app != nil {
		rec[7] = itoa(len(app.Payload()))
	}
	return rec
}

// ToCSV renders a capture file as CSV bytes with the standard Header,
// so captures can flow through the CSV ingestion path unchanged.
func ToCSV(filename string) ([]byte, error) {
	handle, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}

	ext := newExtractor()
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		rec := ext.extract(packet)
		if err := w.Write(rec[:]); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// flagBits packs TCP flags into a small bitmask feature.
func flagBits(tcp *layers.TCP) int {
	bits := 0
	if tcp.SYN {
		bits |= 1
	}
	if tcp.ACK {
		bits |= 2
	}
	if tcp.FIN {
		bits |= 4
	}
	if tcp.RST {
		bits |= 8
	}
	if tcp.PSH {
		bits |= 16
	}
	if tcp.URG {
		bits |= 32
	}
	return bits
}
