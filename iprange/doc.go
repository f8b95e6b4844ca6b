/*
Package iprange implements single-subnet IPv4 address ranges, where only the
last octet of the start and end addresses may differ, such as 192.168.1.1 to
192.168.1.254.

A [Range] can only be created through [New] or [Parse], which validate that
the start address is not greater than the end address and that both addresses
share the same first three octets. So a Range always holds at least one and at
most 256 addresses, and expanding it using [Range.Addresses] or [Range.Each]
never has to deal with wrapping around octet boundaries.
*/
package iprange
