package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	multicastServiceName = "_nmos-registration._tcp.local."
	unicastServiceName   = "_nmos-register._tcp"
)

// Discover finds a registry's base HTTP URL given the node's configured
// hostname, branching per spec §4.7: multicast mDNS browsing when hostname
// ends in ".local", unicast DNS-SD SRV lookup in hostname's domain
// otherwise.
func Discover(ctx context.Context, hostname string) (string, error) {
	if strings.HasSuffix(hostname, ".local") || strings.HasSuffix(hostname, ".local.") {
		return discoverMulticast(ctx)
	}
	return discoverUnicast(hostname)
}

// discoverMulticast browses the legacy multicast service name via mDNS.
// pion/mdns/v2's Conn resolves a single query name to an address, which is
// sufficient for the common single-registry-on-the-segment deployment this
// node targets; a segment with multiple advertised registries still
// resolves to whichever answers first.
func discoverMulticast(ctx context.Context) (string, error) {
	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return "", newErr(ErrCodeNoRegistry, "failed to resolve mDNS IPv4 group address", err)
	}
	sock4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		return "", newErr(ErrCodeNoRegistry, "failed to open mDNS IPv4 socket", err)
	}

	addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6)
	if err != nil {
		sock4.Close()
		return "", newErr(ErrCodeNoRegistry, "failed to resolve mDNS IPv6 group address", err)
	}
	sock6, err := net.ListenUDP("udp6", addr6)
	if err != nil {
		sock4.Close()
		return "", newErr(ErrCodeNoRegistry, "failed to open mDNS IPv6 socket", err)
	}

	conn, err := mdns.Server(ipv4.NewPacketConn(sock4), ipv6.NewPacketConn(sock6), &mdns.Config{})
	if err != nil {
		return "", newErr(ErrCodeNoRegistry, "failed to start mDNS querier", err)
	}
	defer conn.Close()

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, addr, err := conn.Query(queryCtx, multicastServiceName)
	if err != nil {
		return "", newErr(ErrCodeNoRegistry, "mDNS query for registry found no answer", err)
	}

	return fmt.Sprintf("http://%s", addr.String()), nil
}

// discoverUnicast looks up SRV records for the unicast DNS-SD service name
// in hostname's domain.
func discoverUnicast(hostname string) (string, error) {
	domain := domainOf(hostname)
	_, addrs, err := net.LookupSRV("nmos-register", "tcp", domain)
	if err != nil {
		return "", newErr(ErrCodeNoRegistry, fmt.Sprintf("SRV lookup for %s in domain %q failed", unicastServiceName, domain), err)
	}
	if len(addrs) == 0 {
		return "", newErr(ErrCodeNoRegistry, fmt.Sprintf("no SRV records for domain %q", domain), nil)
	}

	best := addrs[0]
	for _, a := range addrs[1:] {
		if a.Priority < best.Priority || (a.Priority == best.Priority && a.Weight > best.Weight) {
			best = a
		}
	}

	target := strings.TrimSuffix(best.Target, ".")
	return fmt.Sprintf("http://%s:%d", target, best.Port), nil
}

func domainOf(hostname string) string {
	if idx := strings.Index(hostname, "."); idx >= 0 {
		return hostname[idx+1:]
	}
	return hostname
}
