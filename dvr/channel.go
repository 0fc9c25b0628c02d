package dvr

// ChannelKind tells logic (analog) channels from IP channels.
type ChannelKind int

const (
	ChannelLogic ChannelKind = iota
	ChannelIP
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelLogic:
		return "Logic"
	case ChannelIP:
		return "IP"
	}
	return "Unknown"
}

// Channel is one resolved device channel. The IP fields are only set
// for ChannelIP; StreamChannel is only valid when HasStreamChannel is
// set, which requires StreamType == ST_Direct.
type Channel struct {
	Kind    ChannelKind
	Index   int
	Number  uint16
	Enabled bool

	IPv4             string
	IPv6             string
	StreamType       uint8
	StreamChannel    uint8
	HasStreamChannel bool
}

// ResolveChannels merges the login descriptor with the IP parameter
// config. Logic channels come first, then IP channels; within each
// kind, Index is contiguous from 0 and Number is the kind's start
// channel plus Index. Position in the config arrays is the join key.
// Slots beyond the fixed config arrays resolve as disabled channels.
func ResolveChannels(info DeviceInfo, cfg *IPParaConfig) []Channel {
	nIP := info.IPChannelCount()
	channels := make([]Channel, 0, int(info.AnalogChanNum)+nIP)

	for i := 0; i < int(info.AnalogChanNum); i++ {
		ch := Channel{
			Kind:   ChannelLogic,
			Index:  i,
			Number: uint16(info.StartChan) + uint16(i),
		}
		if cfg != nil && i < len(cfg.AnalogChanEnable) {
			ch.Enabled = cfg.AnalogChanEnable[i] == 1
		}
		channels = append(channels, ch)
	}

	for i := 0; i < nIP; i++ {
		ch := Channel{
			Kind:   ChannelIP,
			Index:  i,
			Number: uint16(info.StartDChan) + uint16(i),
		}
		if cfg != nil {
			joinIPChannel(&ch, cfg, i)
		}
		channels = append(channels, ch)
	}
	return channels
}

func joinIPChannel(ch *Channel, cfg *IPParaConfig, i int) {
	if i < len(cfg.IPDevInfo) {
		dev := &cfg.IPDevInfo[i]
		ch.Enabled = dev.Enable == 1
		ch.IPv4 = cString(dev.IP.IPv4[:])
		ch.IPv6 = cString(dev.IP.IPv6[:])
	}
	if i < len(cfg.StreamMode) {
		mode := &cfg.StreamMode[i]
		ch.StreamType = mode.GetStreamType
		if info, ok := mode.ChanInfo(); ok {
			ch.StreamChannel = info.Channel
			ch.HasStreamChannel = true
		}
	}
}
