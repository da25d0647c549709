package misc

import (
	"errors"
	"net"
)

// GetLocalAddress finds the IPv4 address of the first non-loopback interface that is up.
func GetLocalAddress() (string, error) {
	networkInterfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	// Attempt to find the first non-loop back network interface with an IP address
	for _, elt := range networkInterfaces {
		if elt.Flags&net.FlagLoopback != 0 || elt.Flags&net.FlagUp == 0 {
			continue
		}
		addresses, err := elt.Addrs()
		if err != nil {
			return "", err
		}
		for _, addr := range addresses {
			if ip, ok := addr.(*net.IPNet); ok {
				if ip4 := ip.IP.To4(); len(ip4) == net.IPv4len {
					return ip4.String(), nil
				}
			}
		}
	}

	return "", errors.New("failed to find a non-loopback interface with valid address on this device")
}

// AdvertisedAddress fills in the host of a listen address such as ":8080" so it
// can be shown to users.
func AdvertisedAddress(listenAddress string) string {
	host, port, err := net.SplitHostPort(listenAddress)
	if err != nil || (host != "" && host != "0.0.0.0" && host != "::") {
		return listenAddress
	}
	local, err := GetLocalAddress()
	if err != nil {
		local = "localhost"
	}
	return net.JoinHostPort(local, port)
}
