package netutil

import (
	"net"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/publicsuffix"
)

// RegistrableDomain returns the eTLD+1 of rawURL ("www.ensembl.org" ->
// "ensembl.org"). Hosts that have no registrable part, such as IP
// addresses and localhost, are returned unchanged.
func RegistrableDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "parse URL")
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", errors.Newf("URL has no host: %q", rawURL)
	}

	if net.ParseIP(host) != nil {
		return host, nil
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, nil
	}
	return domain, nil
}
