// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"net/netip"
	"sort"
	"sync"

	"github.com/siemens/netscan/types"
)

// NamesMap maps IP addresses to their DNS names. A typical use case for a
// NamesMap is to consume named address information from an event stream
// (channel) sending updates as names are dug up.
type NamesMap struct {
	m  map[netip.Addr][]string
	mu sync.Mutex
}

// NewNamesMap returns a new and properly initialized NamesMap.
func NewNamesMap() *NamesMap {
	return &NamesMap{
		m: map[netip.Addr][]string{},
	}
}

// Get returns all named addresses from the map, sorted by address.
func (m *NamesMap) Get() []types.NamedAddress {
	m.mu.Lock()
	defer m.mu.Unlock()
	namaddrs := make([]types.NamedAddress, 0, len(m.m))
	for addr, names := range m.m {
		namaddrs = append(namaddrs, types.NamedAddress{
			Address: addr,
			Names:   append([]string(nil), names...),
		})
	}
	sort.Slice(namaddrs, func(a, b int) bool {
		return namaddrs[a].Address.Less(namaddrs[b].Address)
	})
	return namaddrs
}

// Names returns the names of the specified address, if any.
func (m *NamesMap) Names(addr netip.Addr) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.m[addr]...)
}

// Update the map with a NamedAddress, augmenting the names of an address with
// any names yet unknown.
func (m *NamesMap) Update(namaddr types.NamedAddress) {
	if !namaddr.Address.IsValid() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	names := m.m[namaddr.Address]
nextName:
	for _, name := range namaddr.Names {
		for _, known := range names {
			if known == name {
				continue nextName
			}
		}
		names = append(names, name)
	}
	m.m[namaddr.Address] = names
}

// Track NamedAddress updates received from the specified update channel until
// the channel is closed or the context done. Track only returns after
// processing all updates or when the context is done.
func (m *NamesMap) Track(ctx context.Context, news <-chan types.NamedAddress) error {
	for {
		select {
		case namaddr, ok := <-news:
			if !ok {
				return nil
			}
			m.Update(namaddr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
