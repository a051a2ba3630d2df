package mac

import (
	"fmt"
	"net"
)

// Address is a 48 bit IEEE 802 MAC address.
type Address [6]byte

// Broadcast is the all-stations group address.
var Broadcast = Address{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

/*------------------------------------------------------------------
 *
 * Name:	ParseAddress
 *
 * Purpose:	Convert the usual colon separated text form into an Address.
 *
 * Inputs:	s	- Something like "02:00:00:00:00:01".
 *			  Anything net.ParseMAC accepts is fine as long
 *			  as it is 6 octets.
 *
 *------------------------------------------------------------------*/

func ParseAddress(s string) (Address, error) {
	var a Address

	var hw, err = net.ParseMAC(s)
	if err != nil {
		return a, fmt.Errorf("parse address %q: %w", s, err)
	}

	if len(hw) != len(a) {
		return a, fmt.Errorf("parse address %q: want %d octets, got %d", s, len(a), len(hw))
	}

	copy(a[:], hw)

	return a, nil
}

// IsMulticast reports whether the group bit is set.  Broadcast counts.
func (a Address) IsMulticast() bool {
	return a[0]&0x01 != 0
}

func (a Address) String() string {
	return net.HardwareAddr(a[:]).String()
}
