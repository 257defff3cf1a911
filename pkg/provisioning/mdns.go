package provisioning

import (
	"fmt"

	"github.com/enbility/zeroconf/v3"
)

// mDNS constants for the provisioning announcement.
const (
	// ServiceTypeProvisioning is the DNS-SD service type clients
	// browse for when the captive portal is suppressed.
	ServiceTypeProvisioning = "_roam-prov._tcp"

	// mdnsDomain is the mDNS domain.
	mdnsDomain = "local"
)

// TXT record keys for the provisioning announcement.
const (
	txtKeyURL      = "url"  // Setup URL of the web UI
	txtKeyLanguage = "lang" // UI language tag
)

// advertiser announces the provisioning endpoint over mDNS/DNS-SD.
type advertiser struct {
	server *zeroconf.Server
}

// newAdvertiser registers the provisioning service. The instance name
// is the AP SSID, which is already unique per device.
func newAdvertiser(instance string, port int, url, language string) (*advertiser, error) {
	txt := []string{
		fmt.Sprintf("%s=%s", txtKeyURL, url),
	}
	if language != "" {
		txt = append(txt, fmt.Sprintf("%s=%s", txtKeyLanguage, language))
	}

	server, err := zeroconf.Register(instance, ServiceTypeProvisioning, mdnsDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", ServiceTypeProvisioning, err)
	}
	return &advertiser{server: server}, nil
}

// shutdown stops the announcement.
func (a *advertiser) shutdown() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
