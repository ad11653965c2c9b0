package system

import "net"

// fallbackIP is reported when the primary address cannot be determined.
const fallbackIP = "127.0.0.1"

// PrimaryIP returns the host's primary outbound IPv4 address.
// It opens a UDP socket towards a public address to let the kernel pick
// the default route's source address; no packets are actually sent.
func PrimaryIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return fallbackIP
	}

	defer func() {
		_ = conn.Close()
	}()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return fallbackIP
	}

	return addr.IP.String()
}
