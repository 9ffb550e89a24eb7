package collector

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/resource-monitor/pkg/monitor"
)

// NetworkProvider 开机以来全部网卡的累计收发字节
type NetworkProvider struct {
	name       string
	ioCounters func(pernic bool) ([]net.IOCountersStat, error)
}

func NewNetworkProvider() *NetworkProvider {
	return &NetworkProvider{
		name:       "network",
		ioCounters: net.IOCounters,
	}
}

func (p *NetworkProvider) Name() string { return p.name }

func (p *NetworkProvider) Probe() error {
	if _, err := p.read(); err != nil {
		return unavailable(p.name, err)
	}
	return nil
}

func (p *NetworkProvider) Collect(ctx context.Context, s *monitor.Sample) error {
	total, err := p.read()
	if err != nil {
		return readErr(p.name, "io counters", err)
	}
	s.Network = &monitor.NetStats{
		BytesSent: total.BytesSent,
		BytesRecv: total.BytesRecv,
	}
	return nil
}

func (p *NetworkProvider) read() (net.IOCountersStat, error) {
	counters, err := p.ioCounters(false)
	if err != nil {
		return net.IOCountersStat{}, err
	}
	if len(counters) == 0 {
		return net.IOCountersStat{}, errors.New("no network counters reported")
	}
	return counters[0], nil
}

func (p *NetworkProvider) Close() error { return nil }
