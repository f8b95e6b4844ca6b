/*
Package scan implements the scan coordinator that probes all addresses of an
[iprange.Range] concurrently and then reports the responsive ones.

	         +------+        +--------+
	Range -->| Scan +--addr-->| Pinger +--verdicts--+
	         +------+        +--------+            |
	            ^                                  |
	            +------------ aggregation ---------+

A [Scanner] launches one probe per address, all of them at once unless limited
using [WithWorkers]. Each probe owns its timeout clock, and probes never share
any state: their verdicts travel back over the Pinger's verdict channel to the
single aggregating loop inside [Scanner.Scan], which is the only writer to the
[Result]. Aggregation finishes after every probe has reached its final verdict.

Failed probes, whatever the reason, simply count as unresponsive. Their
failure details are kept in the Result for diagnostics, see [Result.Failures]
and [Result.Systemic].

Cancelling the context passed to [Scanner.Scan] (or hitting its deadline)
immediately finishes the scan: all addresses still being probed are then
considered to be unresponsive.
*/
package scan
