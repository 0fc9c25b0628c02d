package dvr

import (
	"testing"
)

func TestResolveChannelsEmpty(t *testing.T) {
	if got := ResolveChannels(DeviceInfo{}, &IPParaConfig{}); len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

func TestResolveChannelsHighCount(t *testing.T) {
	info := DeviceInfo{
		IPChanNum:    4,
		HighDChanNum: 1,
		StartDChan:   1,
	}
	cfg := &IPParaConfig{}
	cfg.IPDevInfo[63].Enable = 1

	got := ResolveChannels(info, cfg)
	if len(got) != 260 {
		t.Fatalf("got %d channels, want 260", len(got))
	}
	if !got[63].Enabled {
		t.Error("channel 63 not enabled")
	}
	last := got[259]
	if last.Enabled || last.IPv4 != "" || last.HasStreamChannel || last.Number != 260 {
		t.Errorf("out of range channel: %v", last)
	}
}

func TestResolveChannelsNilConfig(t *testing.T) {
	got := ResolveChannels(DeviceInfo{AnalogChanNum: 2, IPChanNum: 1}, nil)
	if len(got) != 3 {
		t.Fatalf("got %d channels", len(got))
	}
	for _, c := range got {
		if c.Enabled {
			t.Errorf("enabled: %v", c)
		}
	}
}

func TestResolveChannelsAddresses(t *testing.T) {
	cfg := &IPParaConfig{}
	// Slot 0 stays all NUL.
	copy(cfg.IPDevInfo[1].IP.IPv4[:], "10.1.2.3\x00junk")
	copy(cfg.IPDevInfo[2].IP.IPv4[:], []byte{'1', 0xff, '2'})
	for i := range cfg.IPDevInfo[3].IP.IPv6 {
		cfg.IPDevInfo[3].IP.IPv6[i] = 'a'
	}

	got := ResolveChannels(DeviceInfo{IPChanNum: 4}, cfg)
	if got[0].IPv4 != "" || got[0].IPv6 != "" {
		t.Errorf("null address: %q %q", got[0].IPv4, got[0].IPv6)
	}
	if got[1].IPv4 != "10.1.2.3" {
		t.Errorf("got %q", got[1].IPv4)
	}
	if got[2].IPv4 != "1\uFFFD2" {
		t.Errorf("invalid utf-8: got %q", got[2].IPv4)
	}
	if len(got[3].IPv6) != 128 {
		t.Errorf("unterminated: len %d", len(got[3].IPv6))
	}
}

func TestResolveChannelsStreamUnion(t *testing.T) {
	cfg := &IPParaConfig{}
	cfg.StreamMode[0].SetChanInfo(IPChanInfo{Channel: 12})
	cfg.StreamMode[1].GetStreamType = ST_StreamServer
	// Non-direct unions hold other layouts; the channel byte must be
	// ignored.
	cfg.StreamMode[1].Union[2] = 12

	got := ResolveChannels(DeviceInfo{IPChanNum: 2}, cfg)
	if !got[0].HasStreamChannel || got[0].StreamChannel != 12 {
		t.Errorf("direct: %v", got[0])
	}
	if got[1].HasStreamChannel || got[1].StreamChannel != 0 || got[1].StreamType != ST_StreamServer {
		t.Errorf("stream server: %v", got[1])
	}
}

func TestChannelString(t *testing.T) {
	c := Channel{Kind: ChannelIP, Index: 0, Number: 33, Enabled: true, IPv4: "10.0.0.9", HasStreamChannel: true, StreamChannel: 1}
	want := "IP[0] ch 33 enabled=true ipv4=10.0.0.9 stream=0 stream-ch=1"
	if got := c.String(); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}
