package sink

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

const serviceType = "_sdrpipe._tcp"

// Discovery announces the audio TCP sink via mDNS/DNS-SD, adapted from
// doismellburning-samoyed's KISS-TNC announcer to this service type.
type Discovery struct {
	responder dnssd.Responder
	cancel    context.CancelFunc
}

// Announce advertises name on port and starts responding in the
// background. Call Stop to withdraw the announcement.
func Announce(name string, port int) (*Discovery, error) {
	cfg := dnssd.Config{
		Name: name,
		Type: serviceType,
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("sink: dnssd new service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("sink: dnssd new responder: %w", err)
	}

	if _, err := rp.Add(sv); err != nil {
		return nil, fmt.Errorf("sink: dnssd add service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Discovery{responder: rp, cancel: cancel}

	go func() {
		_ = rp.Respond(ctx)
	}()

	return d, nil
}

func (d *Discovery) Stop() {
	d.cancel()
}
