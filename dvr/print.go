package dvr

import (
	"fmt"
	"strings"
)

func (i *DeviceInfo) String() string {
	return fmt.Sprintf("serial: %q, type: %d, disks: %d, alarm in/out: %d/%d, "+
		"analog: %d from %d, ip: %d from %d",
		i.SerialNumber,
		i.DVRType,
		i.DiskNum,
		i.AlarmInPortNum,
		i.AlarmOutPortNum,
		i.AnalogChanNum,
		i.StartChan,
		i.IPChannelCount(),
		i.StartDChan)
}

func (c Channel) String() string {
	s := fmt.Sprintf("%s[%d] ch %d enabled=%v", c.Kind, c.Index, c.Number, c.Enabled)
	if c.Kind != ChannelIP {
		return s
	}

	var extra []string
	if c.IPv4 != "" {
		extra = append(extra, "ipv4="+c.IPv4)
	}
	if c.IPv6 != "" {
		extra = append(extra, "ipv6="+c.IPv6)
	}
	extra = append(extra, fmt.Sprintf("stream=%d", c.StreamType))
	if c.HasStreamChannel {
		extra = append(extra, fmt.Sprintf("stream-ch=%d", c.StreamChannel))
	}
	return s + " " + strings.Join(extra, " ")
}
